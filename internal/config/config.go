package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	BotProfile    string

	// LINE Messaging API
	LineChannelAccessToken string
	LineChannelSecret      string
	LineAPIBaseURL         string

	// Gemini text generation
	GeminiAPIKey string
	GeminiAPIURL string

	// LINE Pay
	LinePayChannelID     string
	LinePayChannelSecret string
	LinePaySandbox       bool
	LinePayBaseURL       string

	// Payment command defaults
	PayAmount       int64
	PayCurrency     string
	PayProductName  string
	ProductImageURL string

	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	PendingPaymentTTL time.Duration

	// Timeout applied to every outbound collaborator call.
	UpstreamTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		BotProfile:    strings.ToLower(strings.TrimSpace(getEnv("BOT_PROFILE", "default"))),

		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineAPIBaseURL:         getEnv("LINE_API_BASE_URL", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL: getEnv("GEMINI_API_URL", ""),

		LinePayChannelID:     getEnv("LINE_PAY_CHANNEL_ID", ""),
		LinePayChannelSecret: getEnv("LINE_PAY_CHANNEL_SECRET", ""),
		LinePaySandbox:       getEnvAsBool("LINE_PAY_SANDBOX", true),
		LinePayBaseURL:       getEnv("LINE_PAY_BASE_URL", ""),

		PayAmount:       int64(getEnvAsInt("PAY_AMOUNT", 100)),
		PayCurrency:     getEnv("PAY_CURRENCY", "JPY"),
		PayProductName:  getEnv("PAY_PRODUCT_NAME", "Bot Support"),
		ProductImageURL: getEnv("PRODUCT_IMAGE_URL", ""),

		RedisAddr:         getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),
		PendingPaymentTTL: getEnvAsDuration("PENDING_PAYMENT_TTL", 20*time.Minute),

		UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 30*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
