package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/tborer/resume-helper/internal/api"
	"github.com/tborer/resume-helper/internal/auth"
	"github.com/tborer/resume-helper/internal/billing"
	"github.com/tborer/resume-helper/internal/config"
	"github.com/tborer/resume-helper/internal/keys"
	"github.com/tborer/resume-helper/internal/llm"
	"github.com/tborer/resume-helper/internal/mail"
	"github.com/tborer/resume-helper/internal/parse"
	"github.com/tborer/resume-helper/internal/pipeline"
	"github.com/tborer/resume-helper/internal/store"
	"github.com/tborer/resume-helper/internal/usage"
	"github.com/tborer/resume-helper/pkg/logger"
)

func main() {
	logger.Setup()
	cfg := config.Load()

	slog.Info("Starting Resume Rocket Match AI...")

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL not set")
		os.Exit(1)
	}
	if cfg.MasterAPIKey == "" {
		slog.Warn("no master API key configured; users without personal keys will be rejected")
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		slog.Error("Failed to run schema migration", "error", err)
		os.Exit(1)
	}

	go pruneTokens(st)

	sender, err := mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		slog.Error("Failed to configure mail sender", "error", err)
		os.Exit(1)
	}

	gateway := llm.New(llm.Config{
		Provider:    cfg.Provider,
		GeminiModel: cfg.GeminiModel,
		OpenAIModel: cfg.OpenAIModel,
		Timeout:     cfg.CallTimeout,
	})

	pipe := pipeline.New(
		gateway,
		keys.NewResolver(st, cfg.MasterAPIKey),
		usage.NewMeter(st, cfg.DailySharedLimit),
		st,
		parse.New(cfg.StrictScoreRange),
		cfg.TargetScore,
	)

	authSvc := auth.NewService(st, sender, cfg.AppBaseURL)
	billingSvc := billing.New(cfg.StripeSecretKey, cfg.StripeProductID, cfg.StripePriceID, cfg.StripeCheckoutURL, cfg.StripeWebhookSecret)

	server := api.NewServer(cfg.Port, pipe, st, authSvc, billingSvc)

	slog.Info("Server initialized",
		"port", cfg.Port,
		"provider", cfg.Provider,
		"daily_shared_limit", cfg.DailySharedLimit,
		"target_score", cfg.TargetScore)

	if err := server.Start(); err != nil {
		slog.Error("Error starting API server", "error", err)
		os.Exit(1)
	}
}

// pruneTokens sweeps expired magic-link tokens every hour.
func pruneTokens(st *store.Store) {
	for range time.Tick(time.Hour) {
		n, err := st.PruneExpiredTokens(context.Background())
		if err != nil {
			slog.Warn("failed to prune expired tokens", "error", err)
			continue
		}
		if n > 0 {
			slog.Info("pruned expired magic link tokens", "count", n)
		}
	}
}
