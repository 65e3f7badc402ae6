// Session-insights server — exposes the ingest and context HTTP API and runs
// the event-enrichment worker in the same process.
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

	"github.com/joho/godotenv"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/api"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/cleanup"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/config"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/database"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/enrichment"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/patterns"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/queue"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/services"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/store"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/version"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting session-insights",
		"version", version.GitCommit,
		"http_port", cfg.HTTPPort,
		"batch_size", cfg.Worker.BatchSize,
		"max_concurrency", cfg.Worker.MaxConcurrency)

	ctx := context.Background()

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	st := store.New(dbClient.DB())

	labels := enrichment.NewLabelBuilder(
		cfg.Enrichment.CustomEventTemplates,
		cfg.Enrichment.ElementEnrichmentRules,
		cfg.Enrichment.SemanticLabelMaxLength,
	)
	enricher := enrichment.NewEnricher(labels, cfg.Enrichment.ContextExcludedKeys)

	contextService := services.NewContextService(
		st,
		patterns.NewEngine(patterns.DefaultRules()),
		services.ContextServiceOptions{
			RecentEventsLimit:    cfg.Context.RecentEventsLimit,
			RecentEventsLookback: cfg.Context.RecentEventsLookback,
			PagesInSummaryLimit:  cfg.Enrichment.PagesInSummaryLimit,
		},
	)

	worker := queue.NewWorker(st, queue.NewProcessor(st, enricher), st, &cfg.Worker)
	worker.Start(ctx)

	sweeper := cleanup.NewService(&cfg.Retention, st)
	sweeper.Start(ctx)

	httpServer := api.NewServer(cfg.HTTPPort, st, contextService, worker, dbClient.DB())

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	sweeper.Stop()

	// Drain in-flight enrichment before closing the HTTP surface so the
	// health endpoint stays truthful until the end.
	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		slog.Warn("Worker shutdown timeout exceeded — unfinished events stay PENDING for the next run")
	}

	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
