package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/config"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// Worker drives the ingestion loop: claim a batch of pending raw events,
// dispatch them to a bounded pool of per-event tasks, await the batch, and
// sleep when the queue is empty. A single worker goroutine runs the loop;
// concurrency lives in the per-event tasks.
type Worker struct {
	source    EventSource
	processor EventProcessor
	failures  FailureMarker
	cfg       *config.WorkerConfig
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// Health tracking.
	mu              sync.RWMutex
	status          string
	batchesClaimed  int
	eventsProcessed int
	eventsFailed    int
	lastActivity    time.Time
}

// NewWorker creates an ingestion worker.
func NewWorker(source EventSource, processor EventProcessor, failures FailureMarker, cfg *config.WorkerConfig) *Worker {
	return &Worker{
		source:       source,
		processor:    processor,
		failures:     failures,
		cfg:          cfg,
		stopCh:       make(chan struct{}),
		status:       workerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for in-flight tasks to drain.
// It is safe to call Stop multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns a snapshot of the worker's progress counters.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		Status:          w.status,
		BatchesClaimed:  w.batchesClaimed,
		EventsProcessed: w.eventsProcessed,
		EventsFailed:    w.eventsFailed,
		LastActivity:    w.lastActivity,
	}
}

// run is the main worker loop.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	slog.Info("Ingestion worker started",
		"batch_size", w.cfg.BatchSize,
		"max_concurrency", w.cfg.MaxConcurrency)

	for {
		select {
		case <-w.stopCh:
			slog.Info("Ingestion worker shutting down")
			return
		case <-ctx.Done():
			slog.Info("Context cancelled, ingestion worker shutting down")
			return
		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				slog.Error("Batch claim failed", "error", err)
				w.sleep(w.cfg.WaitTime)
				continue
			}
			if processed == 0 {
				w.sleep(w.cfg.WaitTime)
			}
		}
	}
}

// processBatch claims one batch and processes every event with bounded
// concurrency, returning the number of claimed events. The batch is fully
// awaited before the next claim so an event is never in flight twice within
// this worker.
func (w *Worker) processBatch(ctx context.Context) (int, error) {
	events, err := w.source.ClaimPendingEvents(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claiming pending events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	w.setStatus(workerStatusWorking)
	defer w.setStatus(workerStatusIdle)

	w.mu.Lock()
	w.batchesClaimed++
	w.mu.Unlock()

	slog.Debug("Batch claimed", "events", len(events))

	semaphore := make(chan struct{}, w.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	for _, event := range events {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(event models.RawEvent) {
			defer wg.Done()
			defer func() { <-semaphore }()
			w.processEvent(ctx, event)
		}(event)
	}
	wg.Wait()

	return len(events), nil
}

// processEvent runs one per-event task: enrichment under a task timeout, with
// a compensating FAILED mark on error. Errors never propagate so the batch
// always continues; a failed FAILED mark leaves the row PENDING for a later
// claim.
func (w *Worker) processEvent(ctx context.Context, event models.RawEvent) {
	taskCtx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
	defer cancel()

	err := w.runProcessor(taskCtx, event)
	if err == nil {
		w.mu.Lock()
		w.eventsProcessed++
		w.lastActivity = time.Now()
		w.mu.Unlock()
		return
	}

	slog.Error("Event processing failed",
		"raw_event_id", event.RawEventID,
		"event_name", event.EventName,
		"error", err)

	// Compensate in a fresh context: the task context may already be
	// cancelled or timed out.
	markCtx, markCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer markCancel()
	if markErr := w.failures.MarkEventFailed(markCtx, event.RawEventID); markErr != nil {
		slog.Error("Failed to mark event FAILED, row stays PENDING",
			"raw_event_id", event.RawEventID,
			"error", markErr)
	}

	w.mu.Lock()
	w.eventsFailed++
	w.lastActivity = time.Now()
	w.mu.Unlock()
}

// runProcessor invokes the processor, converting panics into errors so one
// poisoned event cannot take down the batch.
func (w *Worker) runProcessor(ctx context.Context, event models.RawEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during enrichment: %v", r)
		}
	}()
	return w.processor.Process(ctx, event)
}

// sleep waits for the given duration or until stop is signalled.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *Worker) setStatus(status string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.lastActivity = time.Now()
}
