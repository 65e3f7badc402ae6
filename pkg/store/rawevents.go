package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/google/uuid"
)

const rawEventColumns = `raw_event_id, event_name, user_id, timestamp, properties,
	elements_chain, processed_at, status, created_at, updated_at`

// InsertRawEvent queues one tracker event as a PENDING raw row. Used by the
// ingest endpoint.
func (s *Store) InsertRawEvent(ctx context.Context, event models.PostHogEvent) error {
	properties, err := marshalJSON(event.Properties)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO raw_event (raw_event_id, event_name, user_id, timestamp, properties, elements_chain, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), event.Event, event.DistinctID, event.Timestamp, properties,
		event.ElementsChain, models.RawEventStatusPending,
	)
	if err != nil {
		return fmt.Errorf("insert raw event: %w", err)
	}
	return nil
}

// ClaimPendingEvents selects up to batchSize unprocessed PENDING rows in
// created_at order using FOR UPDATE SKIP LOCKED, inside a short transaction
// that commits before returning. The row locks coordinate concurrent
// claimers; they are deliberately not held across enrichment.
func (s *Store) ClaimPendingEvents(ctx context.Context, batchSize int) ([]models.RawEvent, error) {
	var events []models.RawEvent
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT `+rawEventColumns+`
			FROM raw_event
			WHERE processed_at IS NULL AND status = $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED`,
			models.RawEventStatusPending, batchSize,
		)
		if err != nil {
			return fmt.Errorf("query pending events: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			event, err := scanRawEvent(rows)
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// MarkEventDone transitions a raw row to its DONE terminal state, stamping
// processed_at. Runs in the caller's per-event transaction.
func (s *Store) MarkEventDone(ctx context.Context, q DBTX, rawEventID uuid.UUID) error {
	now := time.Now().UTC()
	if _, err := q.ExecContext(ctx, `
		UPDATE raw_event
		SET status = $1, processed_at = $2, updated_at = $2
		WHERE raw_event_id = $3`,
		models.RawEventStatusDone, now, rawEventID,
	); err != nil {
		return fmt.Errorf("mark event done: %w", err)
	}
	return nil
}

// MarkEventFailed transitions a raw row to its FAILED terminal state. Runs on
// the pool in its own implicit transaction, so it works as compensation after
// the per-event transaction has been rolled back.
func (s *Store) MarkEventFailed(ctx context.Context, rawEventID uuid.UUID) error {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE raw_event
		SET status = $1, processed_at = $2, updated_at = $2
		WHERE raw_event_id = $3`,
		models.RawEventStatusFailed, now, rawEventID,
	); err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}

// PurgeFailedEvents deletes FAILED raw rows whose processed_at is older than
// the cutoff. DONE rows stay because enriched rows reference them; FAILED rows
// never produced one.
func (s *Store) PurgeFailedEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM raw_event
		WHERE status = $1 AND processed_at < $2`,
		models.RawEventStatusFailed, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge failed events: %w", err)
	}
	return result.RowsAffected()
}

// FetchRawEvent loads a single raw row by id.
func (s *Store) FetchRawEvent(ctx context.Context, rawEventID uuid.UUID) (models.RawEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rawEventColumns+`
		FROM raw_event
		WHERE raw_event_id = $1`,
		rawEventID,
	)
	if err != nil {
		return models.RawEvent{}, fmt.Errorf("query raw event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.RawEvent{}, err
		}
		return models.RawEvent{}, ErrNotFound
	}
	return scanRawEvent(rows)
}

func scanRawEvent(rows *sql.Rows) (models.RawEvent, error) {
	var (
		event      models.RawEvent
		properties []byte
	)
	if err := rows.Scan(
		&event.RawEventID, &event.EventName, &event.UserID, &event.Timestamp,
		&properties, &event.ElementsChain, &event.ProcessedAt, &event.Status,
		&event.CreatedAt, &event.UpdatedAt,
	); err != nil {
		return models.RawEvent{}, fmt.Errorf("scan raw event: %w", err)
	}
	if err := unmarshalJSON(properties, &event.Properties); err != nil {
		return models.RawEvent{}, err
	}
	return event, nil
}
