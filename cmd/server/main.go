// Binary server exposes the ledger pipeline over HTTP so an external
// scheduler can trigger runs with POST /api/v1/runs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Month tab names and boost dates need Europe/Paris regardless of the
	// host's zoneinfo, so the zone database is compiled in.
	_ "time/tzdata"

	"vinted-ledger/internal/config"
	"vinted-ledger/internal/gmail"
	"vinted-ledger/internal/pipeline"
	"vinted-ledger/internal/server"
	"vinted-ledger/internal/sheets"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(os.Getenv("VINTED_CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gmailConfig := &gmail.Config{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RefreshToken: cfg.Gmail.RefreshToken,
		AccessToken:  cfg.Gmail.AccessToken,
		MaxResults:   cfg.Gmail.MaxResults,
	}
	mailbox, err := gmail.NewClient(ctx, gmailConfig, logger)
	if err != nil {
		logger.Error("failed to create gmail client", "error", err)
		os.Exit(1)
	}

	sheetsClient, err := sheets.NewClient(ctx, gmail.OAuthHTTPClient(ctx, gmailConfig))
	if err != nil {
		logger.Error("failed to create sheets client", "error", err)
		os.Exit(1)
	}

	orchestrator := pipeline.New(mailbox, sheets.NewEngine(sheetsClient, logger),
		pipeline.Categories(cfg), pipeline.Options{
			BatchSize:      cfg.Processing.BatchSize,
			RateLimitDelay: cfg.Processing.RateLimitDelay,
			DryRun:         cfg.Processing.DryRun,
		}, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(orchestrator, mailbox, logger).Router(),
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
