package payments

import (
	"fmt"
	"time"
)

// PendingPayment is the state held between a payment request and its
// confirm/cancel callback. Keyed by the provider transaction id.
type PendingPayment struct {
	TransactionID string    `json:"transactionId"`
	OrderID       string    `json:"orderId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	UserID        string    `json:"userId"`
	ProductName   string    `json:"productName"`
	RequestedAt   time.Time `json:"requestedAt"`
}

// RequestParams describes a single-product payment request.
type RequestParams struct {
	Amount      int64
	Currency    string
	OrderID     string
	ProductName string
	ImageURL    string
	ConfirmURL  string
	CancelURL   string
}

// RequestResult is the successful outcome of a payment request.
type RequestResult struct {
	TransactionID      string
	PaymentURL         string
	PaymentAccessToken string
}

/// ProviderError is a rejection from the payment provider: a non-200 status
// or a non-success return code, with the provider's message.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payments: provider error %s: %s", e.Code, e.Message)
}
