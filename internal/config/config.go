package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	AppBaseURL  string

	// AI provider
	Provider     string // "gemini" (default) or "openai"
	GeminiModel  string
	OpenAIModel  string
	MasterAPIKey string
	CallTimeout  time.Duration

	// Pipeline tuning. The spec values (10/day, escalate below 95) are
	// defaults, not invariants.
	DailySharedLimit int
	TargetScore      int
	StrictScoreRange bool

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeProductID     string
	StripePriceID       string
	StripeCheckoutURL   string

	// Magic-link mail
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	return &Config{
		Port:        envInt("PORT", 8080),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AppBaseURL:  envString("APP_BASE_URL", "http://localhost:8080"),

		Provider:     envString("LLM_PROVIDER", "gemini"),
		GeminiModel:  envString("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIModel:  envString("OPENAI_MODEL", "gpt-4o-mini"),
		MasterAPIKey: os.Getenv("MASTER_API_KEY"),
		CallTimeout:  time.Duration(envInt("AI_CALL_TIMEOUT_SECONDS", 30)) * time.Second,

		DailySharedLimit: envInt("DAILY_SHARED_LIMIT", 10),
		TargetScore:      envInt("OPTIMIZE_TARGET_SCORE", 95),
		StrictScoreRange: envBool("STRICT_SCORE_RANGE", false),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeProductID:     os.Getenv("STRIPE_PRODUCT_ID"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		StripeCheckoutURL:   os.Getenv("STRIPE_CHECKOUT_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     envString("MAIL_FROM", "no-reply@resumerocket.app"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
