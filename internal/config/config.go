package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	JWTSecret     string
	HMACSecret    string
	EncryptionKey string

	// Tax rules; empty means the embedded Thai table
	TaxRulesPath string

	PlanTTL               time.Duration
	ResimulateQuietPeriod time.Duration

	// Advisory model (Ollama-compatible)
	AdvisoryURL        string
	AdvisoryModel      string
	AdvisoryTimeout    time.Duration
	AdvisoryMaxRetries int

	// Market data
	FinnhubURL    string
	FinnhubAPIKey string
	QuoteTimeout  time.Duration
	QuoteCacheTTL time.Duration
	NewsFeedURL   string

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	// SMTP for plan exports
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// NewConfig loads configuration from an optional .env file and environment variables
func NewConfig() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=planner sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		HMACSecret:    getEnv("HMAC_SECRET", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),

		TaxRulesPath: getEnv("TAX_RULES_PATH", ""),

		AdvisoryURL:   getEnv("ADVISORY_URL", "http://localhost:11434"),
		AdvisoryModel: getEnv("ADVISORY_MODEL", "llama3.1"),

		FinnhubURL:    getEnv("FINNHUB_URL", "https://finnhub.io/api/v1"),
		FinnhubAPIKey: getEnv("FINNHUB_API_KEY", ""),
		NewsFeedURL:   getEnv("NEWS_FEED_URL", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=SPY,QQQ&region=US&lang=en-US"),

		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
		SentryRelease:     getEnv("SENTRY_RELEASE", "savings-planner@1.0.0"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "planner@localhost"),
	}

	var err error
	if cfg.PlanTTL, err = getDuration("PLAN_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ResimulateQuietPeriod, err = getDuration("RESIMULATE_QUIET_PERIOD", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.AdvisoryTimeout, err = getDuration("ADVISORY_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.QuoteTimeout, err = getDuration("QUOTE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.QuoteCacheTTL, err = getDuration("QUOTE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AdvisoryMaxRetries, err = getInt("ADVISORY_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.HMACSecret == "" {
		return nil, fmt.Errorf("HMAC_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if cfg.PlanTTL <= 0 {
		return nil, fmt.Errorf("PLAN_TTL must be positive")
	}
	if cfg.AdvisoryMaxRetries < 0 {
		return nil, fmt.Errorf("ADVISORY_MAX_RETRIES must not be negative")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
