package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/SuSaiGit/ikeman/internal/api/router"
	"github.com/SuSaiGit/ikeman/internal/bot"
	appconfig "github.com/SuSaiGit/ikeman/internal/config"
	"github.com/SuSaiGit/ikeman/internal/gemini"
	"github.com/SuSaiGit/ikeman/internal/line"
	"github.com/SuSaiGit/ikeman/internal/observability/metrics"
	"github.com/SuSaiGit/ikeman/internal/payments"
	"github.com/SuSaiGit/ikeman/pkg/logging"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting ikeman webhook relay",
		"env", cfg.Env,
		"port", cfg.Port,
		"profile", cfg.BotProfile,
	)

	registry := prometheus.NewRegistry()
	relayMetrics := metrics.NewRelayMetrics(registry)

	lineClient, err := line.NewClient(line.ClientConfig{
		AccessToken: cfg.LineChannelAccessToken,
		BaseURL:     cfg.LineAPIBaseURL,
		Timeout:     cfg.UpstreamTimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to create messaging client", "error", err)
		os.Exit(1)
	}

	var generator bot.Generator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(gemini.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			APIURL:  cfg.GeminiAPIURL,
			Timeout: cfg.UpstreamTimeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to create generation client", "error", err)
			os.Exit(1)
		}
		generator = geminiClient
	} else {
		logger.Warn("GEMINI_API_KEY not set, free-form messages get a fixed notice")
	}

	var payer bot.PaymentRequester
	var redirects *payments.RedirectHandler
	var pending payments.PendingStore
	if cfg.LinePayChannelID != "" && cfg.LinePayChannelSecret != "" {
		payClient, err := payments.NewClient(payments.ClientConfig{
			ChannelID:     cfg.LinePayChannelID,
			ChannelSecret: cfg.LinePayChannelSecret,
			Sandbox:       cfg.LinePaySandbox,
			BaseURL:       cfg.LinePayBaseURL,
			Timeout:       cfg.UpstreamTimeout,
			Logger:        logger,
		})
		if err != nil {
			logger.Error("failed to create payment client", "error", err)
			os.Exit(1)
		}
		payer = payClient
		pending = newPendingStore(cfg, logger)
		redirects = payments.NewRedirectHandler(payClient, pending, logger)
	} else {
		logger.Warn("LINE Pay credentials not set, pay command disabled")
	}

	profile := bot.ProfileByName(cfg.BotProfile)
	dispatcher := bot.NewDispatcher(bot.DispatcherConfig{
		Profile:   profile,
		Replier:   lineClient,
		Generator: generator,
		Payer:     payer,
		Pending:   pending,
		Payment: bot.PaymentConfig{
			Amount:      cfg.PayAmount,
			Currency:    cfg.PayCurrency,
			ProductName: cfg.PayProductName,
			ImageURL:    cfg.ProductImageURL,
			ConfirmURL:  cfg.PublicBaseURL + "/payments/confirm",
			CancelURL:   cfg.PublicBaseURL + "/payments/cancel",
			PendingTTL:  cfg.PendingPaymentTTL,
		},
		Metrics: relayMetrics,
		Logger:  logger,
	})
	webhook := bot.NewWebhookHandler(cfg.LineChannelSecret, dispatcher, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		Webhook:        webhook,
		Redirects:      redirects,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newPendingStore picks Redis when an address is configured, otherwise the
// in-process store. The in-process store is fine for a single instance; the
// confirm callback must land on the instance that created the payment.
func newPendingStore(cfg *appconfig.Config, logger *logging.Logger) payments.PendingStore {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory pending payment store")
		return payments.NewMemoryStore()
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	return payments.NewRedisStore(client)
}
