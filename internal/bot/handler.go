package bot

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/SuSaiGit/ikeman/internal/line"
	"github.com/SuSaiGit/ikeman/pkg/logging"
)

// WebhookHandler terminates the messaging platform's webhook. POST carries
// signed event batches; GET answers platform connectivity checks.
type WebhookHandler struct {
	channelSecret string
	dispatcher    *Dispatcher
	logger        *logging.Logger
	now           func() time.Time
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(channelSecret string, dispatcher *Dispatcher, logger *logging.Logger) *WebhookHandler {
	if dispatcher == nil {
		panic("bot: dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		channelSecret: channelSecret,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
	}
}

// HandlePost verifies the batch signature over the raw body, then hands each
// event to the dispatcher. A bad signature rejects the whole batch before any
// event is processed.
func (h *WebhookHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read request body"})
		return
	}

	signature := r.Header.Get(line.SignatureHeader)
	if !line.VerifySignature(h.channelSecret, body, signature) {
		h.logger.Warn("webhook signature verification failed", "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid signature"})
		return
	}

	var envelope line.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Error("failed to decode webhook body", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid webhook payload"})
		return
	}

	h.logger.Info("webhook batch received", "events", len(envelope.Events))
	for _, ev := range envelope.Events {
		h.dispatcher.HandleEvent(r.Context(), ev)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// HandleGet answers the platform's reachability probe.
func (h *WebhookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"bot":       h.dispatcher.profile.IdentityReply,
		"message":   "webhook endpoint is reachable",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
