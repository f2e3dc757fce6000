package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SuSaiGit/ikeman/internal/bot"
	httpmiddleware "github.com/SuSaiGit/ikeman/internal/http/middleware"
	"github.com/SuSaiGit/ikeman/internal/payments"
	"github.com/SuSaiGit/ikeman/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        *bot.WebhookHandler
	Redirects      *payments.RedirectHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)

	r.Route("/webhook", func(r chi.Router) {
		r.Get("/", cfg.Webhook.HandleGet)
		r.Post("/", cfg.Webhook.HandlePost)
	})

	if cfg.Redirects != nil {
		r.Route("/payments", func(r chi.Router) {
			r.Get("/confirm", cfg.Redirects.HandleConfirm)
			r.Get("/cancel", cfg.Redirects.HandleCancel)
			r.Get("/success", payments.OutcomePage("Payment Complete", "Thank you! Your payment has been processed."))
			r.Get("/failed", payments.OutcomePage("Payment Failed", "Sorry, we could not process your payment. Please try again."))
			r.Get("/cancelled", payments.OutcomePage("Payment Cancelled", "Your payment was cancelled. No charge was made."))
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
