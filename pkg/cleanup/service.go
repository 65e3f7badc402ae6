// Package cleanup runs the background sweeper enforcing session and raw-event
// retention.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/config"
)

// SweepStore is the slice of the store the sweeper needs.
type SweepStore interface {
	CloseIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeFailedEvents(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service periodically enforces retention policies:
//   - Closes sessions idle past the configured timeout, stamping ended_at
//   - Deletes FAILED raw rows past their TTL
//
// All operations are idempotent and safe to run from multiple pods.
type Service struct {
	config *config.RetentionConfig
	store  SweepStore

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new sweeper over the given store.
func NewService(cfg *config.RetentionConfig, store SweepStore) *Service {
	return &Service{config: cfg, store: store}
}

// Start launches the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Sweeper started",
		"session_idle_timeout", s.config.SessionIdleTimeout,
		"failed_event_ttl", s.config.FailedEventTTL,
		"interval", s.config.SweepInterval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Sweeper stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.closeIdleSessions(ctx)
	s.purgeFailedEvents(ctx)
}

func (s *Service) closeIdleSessions(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.config.SessionIdleTimeout)
	count, err := s.store.CloseIdleSessions(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: closing idle sessions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: closed idle sessions", "count", count)
	}
}

func (s *Service) purgeFailedEvents(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.config.FailedEventTTL)
	count, err := s.store.PurgeFailedEvents(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: purging failed events failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: purged failed raw events", "count", count)
	}
}
