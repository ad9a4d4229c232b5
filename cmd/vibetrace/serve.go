package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vibetrace/internal/anthropic"
	"github.com/MikeSquared-Agency/vibetrace/internal/api"
	"github.com/MikeSquared-Agency/vibetrace/internal/correlate"
	"github.com/MikeSquared-Agency/vibetrace/internal/github"
	"github.com/MikeSquared-Agency/vibetrace/internal/hermes"
	"github.com/MikeSquared-Agency/vibetrace/internal/store"
	"github.com/MikeSquared-Agency/vibetrace/internal/vibe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vibe history HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logger := slog.Default()
	logger.Info("vibetrace starting", "port", cfg.Port)

	// Database
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database connected")

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required")
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger)
	logger.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// NATS/Hermes (optional)
	var publisher vibe.Publisher
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return err
		}
		defer hermesClient.Close()
		publisher = hermesClient
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS not configured, analyzed events will not be published")
	}

	gh := github.NewClient(cfg.GitHubAPIURL, github.PassthroughTokens{Fallback: cfg.GitHubToken}, logger)

	svc := vibe.NewService(gh, correlate.New(llm, logger), db, publisher, vibe.Config{
		LookbackDays: cfg.LookbackDays,
		CommitLimit:  cfg.CommitLimit,
		RunTimeout:   cfg.RunTimeout,
	}, logger)

	if cfg.APIToken == "" {
		logger.Warn("VIBETRACE_API_TOKEN not set, API is unauthenticated")
	}
	srv := api.NewServer(cfg.Port, cfg.APIToken, svc, cfg.MaxUploadBytes, logger)

	logger.Info("vibetrace ready", "port", cfg.Port)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("vibetrace stopped")
	return nil
}
