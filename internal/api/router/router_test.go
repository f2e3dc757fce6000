package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SuSaiGit/ikeman/internal/bot"
	"github.com/SuSaiGit/ikeman/internal/line"
	"github.com/SuSaiGit/ikeman/internal/payments"
	"github.com/SuSaiGit/ikeman/pkg/logging"
)

type noopReplier struct{}

func (noopReplier) ReplyText(_ context.Context, _, _ string) error { return nil }

func (noopReplier) ReplyFlex(_ context.Context, _ string, _ *line.FlexMessage) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.New("error")
	dispatcher := bot.NewDispatcher(bot.DispatcherConfig{
		Profile: bot.ProfileByName("default"),
		Replier: noopReplier{},
		Logger:  logger,
	})
	webhook := bot.NewWebhookHandler("secret", dispatcher, logger)

	return New(&Config{
		Logger:  logger,
		Webhook: webhook,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %q", resp["status"])
	}
}

func TestRouterWebhookRoutes(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /webhook = %d, want %d", rr.Code, http.StatusOK)
	}

	// Unsigned POST must be rejected by the handler, not the router.
	req = httptest.NewRequest(http.MethodPost, "/webhook", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unsigned POST /webhook = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRouterPaymentRoutesAbsentWithoutRedirects(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, payments.SuccessPagePath, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("payment pages should be absent when payments are disabled, got %d", rr.Code)
	}
}
