package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/patterns"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/store"
)

// ContextReader is the subset of the store the context service reads from.
type ContextReader interface {
	FetchRecentEvents(ctx context.Context, userID string, limit int, lookback time.Duration) ([]models.EnrichedEvent, error)
	FetchLatestSession(ctx context.Context, userID string) (models.Session, error)
	FetchSessionEvents(ctx context.Context, sessionID string) ([]models.EnrichedEvent, error)
}

// ContextService assembles the user context payload: recent activity, the
// latest session's summary, and the behavioural patterns detected in it.
type ContextService struct {
	reader        ContextReader
	engine        *patterns.Engine
	recentLimit   int
	lookback      time.Duration
	pagesInSumary int
}

// ContextServiceOptions tune the context service.
type ContextServiceOptions struct {
	// RecentEventsLimit caps the cross-session recent event list.
	RecentEventsLimit int

	// RecentEventsLookback restricts recent events to a trailing window;
	// zero disables the filter.
	RecentEventsLookback time.Duration

	// PagesInSummaryLimit caps unique page titles in the session summary.
	PagesInSummaryLimit int
}

// NewContextService creates a context service. Zero option values fall back
// to the documented defaults (20 recent events, 3 summary pages).
func NewContextService(reader ContextReader, engine *patterns.Engine, opts ContextServiceOptions) *ContextService {
	if opts.RecentEventsLimit <= 0 {
		opts.RecentEventsLimit = 20
	}
	if opts.PagesInSummaryLimit <= 0 {
		opts.PagesInSummaryLimit = 3
	}
	return &ContextService{
		reader:        reader,
		engine:        engine,
		recentLimit:   opts.RecentEventsLimit,
		lookback:      opts.RecentEventsLookback,
		pagesInSumary: opts.PagesInSummaryLimit,
	}
}

// GetContext returns the composite context payload for a user. A user with
// no sessions yields an empty-pattern payload, never an error.
func (s *ContextService) GetContext(ctx context.Context, userID string) (models.UserContext, error) {
	recent, err := s.reader.FetchRecentEvents(ctx, userID, s.recentLimit, s.lookback)
	if err != nil {
		return models.UserContext{}, fmt.Errorf("fetching recent events: %w", err)
	}
	if recent == nil {
		recent = []models.EnrichedEvent{}
	}

	result := models.UserContext{
		UserID:       userID,
		RecentEvents: recent,
		Patterns:     []models.Pattern{},
	}

	latest, err := s.reader.FetchLatestSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return models.UserContext{}, fmt.Errorf("fetching latest session: %w", err)
	}

	sessionEvents, err := s.reader.FetchSessionEvents(ctx, latest.SessionID)
	if err != nil {
		return models.UserContext{}, fmt.Errorf("fetching session events: %w", err)
	}

	summary := GenerateEventsSummary(sessionEvents, s.pagesInSumary)
	result.LastSessionSummary = &summary
	result.Patterns = s.engine.Detect(sessionEvents, models.NewSessionContext(latest))

	return result, nil
}
