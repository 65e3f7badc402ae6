package models

import "time"

// Session is a tracker-assigned window of user activity, keyed by the
// event's $session_id. Counters only ever increase; first_page is written at
// creation and never rewritten.
type Session struct {
	SessionID      string     `json:"session_id"`
	UserID         string     `json:"user_id"`
	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	EventCount     int        `json:"event_count"`
	PageViewsCount int        `json:"page_views_count"`
	ClicksCount    int        `json:"clicks_count"`
	FirstPage      *string    `json:"first_page,omitempty"`
	LastPage       *string    `json:"last_page,omitempty"`
	SessionSummary *string    `json:"session_summary,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SessionContext is a read-only projection of a session handed to the
// pattern engine. Duration is nil while the session is still active.
type SessionContext struct {
	SessionID      string         `json:"session_id"`
	UserID         string         `json:"user_id"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	Duration       *time.Duration `json:"-"`
	EventCount     int            `json:"event_count"`
	PageViewsCount int            `json:"page_views_count"`
	ClicksCount    int            `json:"clicks_count"`
	FirstPage      *string        `json:"first_page,omitempty"`
	LastPage       *string        `json:"last_page,omitempty"`
	IsActive       bool           `json:"is_active"`
}

// NewSessionContext builds the pattern-engine projection of a session.
func NewSessionContext(s Session) SessionContext {
	ctx := SessionContext{
		SessionID:      s.SessionID,
		UserID:         s.UserID,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		EventCount:     s.EventCount,
		PageViewsCount: s.PageViewsCount,
		ClicksCount:    s.ClicksCount,
		FirstPage:      s.FirstPage,
		LastPage:       s.LastPage,
		IsActive:       s.IsActive,
	}
	if s.EndedAt != nil {
		d := s.EndedAt.Sub(s.StartedAt)
		ctx.Duration = &d
	}
	return ctx
}

// DurationSeconds returns the session duration in seconds, or nil for an
// active session.
func (c SessionContext) DurationSeconds() *float64 {
	if c.Duration == nil {
		return nil
	}
	secs := c.Duration.Seconds()
	return &secs
}
