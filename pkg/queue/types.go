// Package queue provides the ingestion worker: batch claiming of pending raw
// events and their enrichment with bounded concurrency.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/google/uuid"
)

// ErrMissingSession indicates a raw event without a $session_id property.
// Such events cannot be attached to a session and are marked FAILED without
// retry.
var ErrMissingSession = errors.New("missing $session_id in event properties")

// EventSource claims batches of pending raw events for exclusive processing.
type EventSource interface {
	ClaimPendingEvents(ctx context.Context, batchSize int) ([]models.RawEvent, error)
}

// EventProcessor runs the enrichment pipeline for one raw event inside its
// own transaction.
type EventProcessor interface {
	Process(ctx context.Context, event models.RawEvent) error
}

// FailureMarker records the FAILED terminal state for a raw event in a fresh
// transaction, as compensation after a processing failure.
type FailureMarker interface {
	MarkEventFailed(ctx context.Context, rawEventID uuid.UUID) error
}

// WorkerHealth is a snapshot of the worker's progress counters, surfaced by
// the health endpoint.
type WorkerHealth struct {
	Status          string    `json:"status"` // "idle" or "working"
	BatchesClaimed  int       `json:"batches_claimed"`
	EventsProcessed int       `json:"events_processed"`
	EventsFailed    int       `json:"events_failed"`
	LastActivity    time.Time `json:"last_activity"`
}

// Worker status values.
const (
	workerStatusIdle    = "idle"
	workerStatusWorking = "working"
)
