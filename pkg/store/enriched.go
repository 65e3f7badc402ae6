package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

const enrichedEventColumns = `enriched_event_id, raw_event_id, user_id, session_id,
	timestamp, event_name, event_type, action_type, semantic_label, page_path,
	page_title, element_type, element_text, context, sequence_number, created_at`

// InsertEnrichedEvent appends one enriched record, running in the caller's
// per-event transaction.
func (s *Store) InsertEnrichedEvent(ctx context.Context, q DBTX, event models.EnrichedEvent) error {
	context, err := marshalJSON(event.Context)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO enriched_event (
			enriched_event_id, raw_event_id, user_id, session_id, timestamp,
			event_name, event_type, action_type, semantic_label, page_path,
			page_title, element_type, element_text, context, sequence_number
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		event.EnrichedEventID, event.RawEventID, event.UserID, event.SessionID,
		event.Timestamp, event.EventName, event.EventType, event.ActionType,
		event.SemanticLabel, event.PagePath, event.PageTitle, event.ElementType,
		event.ElementText, context, event.SequenceNumber,
	); err != nil {
		return fmt.Errorf("insert enriched event: %w", err)
	}
	return nil
}

// FetchRecentEvents returns the user's newest enriched events across all
// sessions, ordered by timestamp descending. A positive lookback restricts
// results to that much recent history.
func (s *Store) FetchRecentEvents(ctx context.Context, userID string, limit int, lookback time.Duration) ([]models.EnrichedEvent, error) {
	query := `
		SELECT ` + enrichedEventColumns + `
		FROM enriched_event
		WHERE user_id = $1`
	args := []any{userID}

	if lookback > 0 {
		args = append(args, time.Now().UTC().Add(-lookback))
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args))

	return s.queryEnrichedEvents(ctx, query, args...)
}

// FetchSessionEvents returns every enriched event of one session ordered by
// sequence number ascending, the order the pattern engine expects.
func (s *Store) FetchSessionEvents(ctx context.Context, sessionID string) ([]models.EnrichedEvent, error) {
	return s.queryEnrichedEvents(ctx, `
		SELECT `+enrichedEventColumns+`
		FROM enriched_event
		WHERE session_id = $1
		ORDER BY sequence_number ASC`,
		sessionID,
	)
}

// CountUserEvents counts a user's enriched events, optionally within a
// lookback window.
func (s *Store) CountUserEvents(ctx context.Context, userID string, lookback time.Duration) (int, error) {
	query := `SELECT COUNT(*) FROM enriched_event WHERE user_id = $1`
	args := []any{userID}
	if lookback > 0 {
		args = append(args, time.Now().UTC().Add(-lookback))
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user events: %w", err)
	}
	return count, nil
}

func (s *Store) queryEnrichedEvents(ctx context.Context, query string, args ...any) ([]models.EnrichedEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query enriched events: %w", err)
	}
	defer rows.Close()

	var events []models.EnrichedEvent
	for rows.Next() {
		event, err := scanEnrichedEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEnrichedEvent(rows *sql.Rows) (models.EnrichedEvent, error) {
	var (
		event   models.EnrichedEvent
		context []byte
	)
	if err := rows.Scan(
		&event.EnrichedEventID, &event.RawEventID, &event.UserID, &event.SessionID,
		&event.Timestamp, &event.EventName, &event.EventType, &event.ActionType,
		&event.SemanticLabel, &event.PagePath, &event.PageTitle, &event.ElementType,
		&event.ElementText, &context, &event.SequenceNumber, &event.CreatedAt,
	); err != nil {
		return models.EnrichedEvent{}, fmt.Errorf("scan enriched event: %w", err)
	}
	if err := unmarshalJSON(context, &event.Context); err != nil {
		return models.EnrichedEvent{}, err
	}
	return event, nil
}
