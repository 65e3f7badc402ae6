// Package patterns implements the declarative rule engine that evaluates a
// session's enriched event stream against behavioural pattern rules. The
// engine is pure: for fixed inputs, detection is deterministic and performs
// no I/O.
package patterns

import (
	"strings"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// EventFilter is a conjunctive predicate over a single enriched event. Nil
// fields are unconstrained.
type EventFilter struct {
	EventType        *models.EventType
	ActionType       *models.ActionType
	PagePathPrefix   *string
	PagePathEquals   *string
	SemanticContains *string
}

// Apply returns the events matching every set constraint, preserving input
// order.
func (f EventFilter) Apply(events []models.EnrichedEvent) []models.EnrichedEvent {
	var result []models.EnrichedEvent
	for _, e := range events {
		if f.Matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// Matches reports whether a single event satisfies the filter.
func (f EventFilter) Matches(e models.EnrichedEvent) bool {
	if f.EventType != nil && e.EventType != *f.EventType {
		return false
	}
	if f.ActionType != nil && e.ActionType != *f.ActionType {
		return false
	}
	if f.PagePathPrefix != nil && !strings.HasPrefix(pagePath(e), *f.PagePathPrefix) {
		return false
	}
	if f.PagePathEquals != nil && pagePath(e) != *f.PagePathEquals {
		return false
	}
	if f.SemanticContains != nil &&
		!strings.Contains(strings.ToLower(e.SemanticLabel), strings.ToLower(*f.SemanticContains)) {
		return false
	}
	return true
}

func pagePath(e models.EnrichedEvent) string {
	if e.PagePath == nil {
		return ""
	}
	return *e.PagePath
}

// SessionFilter is a predicate over the session shape. Nil fields are
// unconstrained; min bounds mean actual >= bound and max bounds mean
// actual <= bound. Any explicitly set duration bound fails to match while the
// session is still active (no duration yet).
type SessionFilter struct {
	MinDurationSeconds *float64
	MaxDurationSeconds *float64
	MinEvents          *int
	MaxEvents          *int
	MinPageViews       *int
	MaxPageViews       *int
}

// Matches reports whether the session context satisfies the filter.
func (f SessionFilter) Matches(session models.SessionContext) bool {
	duration := session.DurationSeconds()

	if f.MinDurationSeconds != nil && (duration == nil || *duration < *f.MinDurationSeconds) {
		return false
	}
	if f.MaxDurationSeconds != nil && (duration == nil || *duration > *f.MaxDurationSeconds) {
		return false
	}
	if f.MinEvents != nil && session.EventCount < *f.MinEvents {
		return false
	}
	if f.MaxEvents != nil && session.EventCount > *f.MaxEvents {
		return false
	}
	if f.MinPageViews != nil && session.PageViewsCount < *f.MinPageViews {
		return false
	}
	if f.MaxPageViews != nil && session.PageViewsCount > *f.MaxPageViews {
		return false
	}
	return true
}
