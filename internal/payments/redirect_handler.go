package payments

import (
	"net/http"
	"strings"

	"github.com/SuSaiGit/ikeman/pkg/logging"
)

// Outcome page paths the callbacks redirect the user-agent to.
const (
	SuccessPagePath   = "/payments/success"
	FailedPagePath    = "/payments/failed"
	CancelledPagePath = "/payments/cancelled"
)

// RedirectHandler serves the browser-driven confirm/cancel callbacks the
// provider redirects the payer to. These carry no signature; the only
// tamper resistance is that confirmation amounts come from the stored
// record, never from the URL.
type RedirectHandler struct {
	client *Client
	store  PendingStore
	logger *logging.Logger
}

// NewRedirectHandler creates the confirm/cancel callback handler.
func NewRedirectHandler(client *Client, store PendingStore, logger *logging.Logger) *RedirectHandler {
	if client == nil {
		panic("payments: client cannot be nil")
	}
	if store == nil {
		panic("payments: pending store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedirectHandler{client: client, store: store, logger: logger}
}

// HandleConfirm handles GET /payments/confirm?transactionId=...&orderId=...
// It consumes the pending record and confirms the payment with the stored
// amount and currency.
func (h *RedirectHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	transactionID := strings.TrimSpace(r.URL.Query().Get("transactionId"))
	orderID := strings.TrimSpace(r.URL.Query().Get("orderId"))

	if transactionID == "" {
		h.logger.Warn("payment confirm: missing transaction id")
		http.Redirect(w, r, FailedPagePath, http.StatusFound)
		return
	}
	h.logger.Info("confirming payment", "transaction_id", transactionID, "order_id", orderID)

	record, err := h.store.TakeIfPresent(r.Context(), transactionID)
	if err != nil {
		h.logger.Error("payment confirm: store failure", "error", err, "transaction_id", transactionID)
		http.Redirect(w, r, FailedPagePath, http.StatusFound)
		return
	}
	if record == nil {
		// Expired, already confirmed, or forged: indistinguishable here.
		h.logger.Warn("payment confirm: payment data not found", "transaction_id", transactionID)
		http.Redirect(w, r, FailedPagePath, http.StatusFound)
		return
	}

	if err := h.client.Confirm(r.Context(), transactionID, record.Amount, record.Currency); err != nil {
		h.logger.Error("payment confirmation failed", "error", err, "transaction_id", transactionID, "order_id", record.OrderID)
		http.Redirect(w, r, FailedPagePath, http.StatusFound)
		return
	}

	h.logger.Info("payment confirmed",
		"transaction_id", transactionID,
		"order_id", record.OrderID,
		"amount", record.Amount,
		"currency", record.Currency,
	)
	http.Redirect(w, r, SuccessPagePath, http.StatusFound)
}

// HandleCancel handles GET /payments/cancel?transactionId=...&orderId=...
// Dropping the pending record is all there is to do; no provider call.
func (h *RedirectHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	transactionID := strings.TrimSpace(r.URL.Query().Get("transactionId"))
	orderID := strings.TrimSpace(r.URL.Query().Get("orderId"))

	h.logger.Info("payment cancelled", "transaction_id", transactionID, "order_id", orderID)

	if transactionID != "" {
		if err := h.store.Delete(r.Context(), transactionID); err != nil {
			h.logger.Error("payment cancel: store failure", "error", err, "transaction_id", transactionID)
		}
	}
	http.Redirect(w, r, CancelledPagePath, http.StatusFound)
}

// OutcomePage returns a handler serving a minimal static outcome page.
func OutcomePage(title, message string) http.HandlerFunc {
	page := "<!DOCTYPE html><html><head><title>" + title + "</title></head>" +
		"<body><h1>" + title + "</h1><p>" + message + "</p></body></html>"
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	}
}
