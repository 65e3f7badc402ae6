package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

const sessionColumns = `session_id, user_id, started_at, last_activity_at, ended_at,
	event_count, page_views_count, clicks_count, first_page, last_page,
	session_summary, is_active, created_at, updated_at`

// GetOrCreateSession idempotently ensures a session row exists for the
// event's $session_id and returns it. The insert uses ON CONFLICT DO NOTHING
// so concurrent creators race safely; the read-back is the source of truth
// for the counters seen by enrichment.
func (s *Store) GetOrCreateSession(ctx context.Context, q DBTX, event models.RawEvent) (models.Session, error) {
	sessionID := event.SessionID()
	if sessionID == "" {
		return models.Session{}, errors.New("raw event carries no $session_id")
	}

	var firstPage *string
	if p := event.PagePath(); p != "" {
		firstPage = &p
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO session (session_id, user_id, started_at, last_activity_at, first_page, is_active)
		VALUES ($1, $2, $3, $3, $4, TRUE)
		ON CONFLICT (session_id) DO NOTHING`,
		sessionID, event.UserID, event.Timestamp, firstPage,
	); err != nil {
		return models.Session{}, fmt.Errorf("insert session: %w", err)
	}

	return s.fetchSession(ctx, q, sessionID)
}

// UpdateSessionActivity bumps the session counters after one enriched event.
// Counters are updated with relative expressions so concurrent increments
// compose.
func (s *Store) UpdateSessionActivity(
	ctx context.Context,
	q DBTX,
	sessionID string,
	event models.RawEvent,
	enriched models.EnrichedEvent,
) error {
	var err error
	switch {
	case enriched.PagePath != nil:
		_, err = q.ExecContext(ctx, `
			UPDATE session
			SET last_activity_at = $1,
			    event_count = event_count + 1,
			    page_views_count = page_views_count + 1,
			    last_page = $2,
			    updated_at = NOW()
			WHERE session_id = $3`,
			event.Timestamp, *enriched.PagePath, sessionID,
		)
	case enriched.EventType == models.EventTypeClick:
		_, err = q.ExecContext(ctx, `
			UPDATE session
			SET last_activity_at = $1,
			    event_count = event_count + 1,
			    clicks_count = clicks_count + 1,
			    updated_at = NOW()
			WHERE session_id = $2`,
			event.Timestamp, sessionID,
		)
	default:
		_, err = q.ExecContext(ctx, `
			UPDATE session
			SET last_activity_at = $1,
			    event_count = event_count + 1,
			    updated_at = NOW()
			WHERE session_id = $2`,
			event.Timestamp, sessionID,
		)
	}
	if err != nil {
		return fmt.Errorf("update session activity: %w", err)
	}
	return nil
}

// CloseIdleSessions deactivates sessions whose last activity predates the
// cutoff, stamping ended_at from last_activity_at. Idempotent; already closed
// sessions are untouched.
func (s *Store) CloseIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE session
		SET is_active = FALSE, ended_at = last_activity_at, updated_at = NOW()
		WHERE is_active AND last_activity_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("close idle sessions: %w", err)
	}
	return result.RowsAffected()
}

// FetchSession loads a session by id, returning ErrNotFound when absent.
func (s *Store) FetchSession(ctx context.Context, sessionID string) (models.Session, error) {
	return s.fetchSession(ctx, s.db, sessionID)
}

// FetchLatestSession returns the user's most recently started session, or
// ErrNotFound when the user has none.
func (s *Store) FetchLatestSession(ctx context.Context, userID string) (models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM session
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT 1`,
		userID,
	)
	return scanSessionRow(row)
}

// FetchUserSessions lists the user's most recent sessions, newest first.
func (s *Store) FetchUserSessions(ctx context.Context, userID string, limit int, activeOnly bool) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM session
		WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += `
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) fetchSession(ctx context.Context, q DBTX, sessionID string) (models.Session, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM session
		WHERE session_id = $1`,
		sessionID,
	)
	return scanSessionRow(row)
}

func scanSessionRow(row *sql.Row) (models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.SessionID, &session.UserID, &session.StartedAt, &session.LastActivityAt,
		&session.EndedAt, &session.EventCount, &session.PageViewsCount, &session.ClicksCount,
		&session.FirstPage, &session.LastPage, &session.SessionSummary, &session.IsActive,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return session, nil
}

func scanSession(rows *sql.Rows) (models.Session, error) {
	var session models.Session
	if err := rows.Scan(
		&session.SessionID, &session.UserID, &session.StartedAt, &session.LastActivityAt,
		&session.EndedAt, &session.EventCount, &session.PageViewsCount, &session.ClicksCount,
		&session.FirstPage, &session.LastPage, &session.SessionSummary, &session.IsActive,
		&session.CreatedAt, &session.UpdatedAt,
	); err != nil {
		return models.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return session, nil
}
