package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

func event(label string, overrides func(*models.EnrichedEvent)) models.EnrichedEvent {
	path := "/"
	e := models.EnrichedEvent{
		EventType:     models.EventTypePageview,
		ActionType:    models.ActionTypeView,
		SemanticLabel: label,
		PagePath:      &path,
	}
	if overrides != nil {
		overrides(&e)
	}
	return e
}

func TestEventFilterMatches(t *testing.T) {
	checkout := "/checkout"
	clickEvent := event("Clicked 'Pay' button", func(e *models.EnrichedEvent) {
		e.EventType = models.EventTypeClick
		e.ActionType = models.ActionTypeClick
		e.PagePath = &checkout
	})

	tests := []struct {
		name    string
		filter  EventFilter
		matches bool
	}{
		{"empty filter matches anything", EventFilter{}, true},
		{"event type match", EventFilter{EventType: ptr(models.EventTypeClick)}, true},
		{"event type mismatch", EventFilter{EventType: ptr(models.EventTypePageview)}, false},
		{"action type match", EventFilter{ActionType: ptr(models.ActionTypeClick)}, true},
		{"action type mismatch", EventFilter{ActionType: ptr(models.ActionTypeRageClick)}, false},
		{"path prefix match", EventFilter{PagePathPrefix: ptr("/check")}, true},
		{"path prefix mismatch", EventFilter{PagePathPrefix: ptr("/billing")}, false},
		{"path equals match", EventFilter{PagePathEquals: ptr("/checkout")}, true},
		{"path equals mismatch", EventFilter{PagePathEquals: ptr("/check")}, false},
		{"semantic contains is case-insensitive", EventFilter{SemanticContains: ptr("PAY")}, true},
		{"semantic contains mismatch", EventFilter{SemanticContains: ptr("refund")}, false},
		{
			"all constraints are conjunctive",
			EventFilter{
				EventType:        ptr(models.EventTypeClick),
				SemanticContains: ptr("order"),
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.filter.Matches(clickEvent))
		})
	}
}

func TestEventFilterNilPagePath(t *testing.T) {
	noPath := event("Started plan upgrade", func(e *models.EnrichedEvent) {
		e.EventType = models.EventTypeCustom
		e.PagePath = nil
	})

	assert.False(t, EventFilter{PagePathPrefix: ptr("/billing")}.Matches(noPath))
	assert.False(t, EventFilter{PagePathEquals: ptr("/billing")}.Matches(noPath))
	// An empty prefix is satisfied even without a path.
	assert.True(t, EventFilter{PagePathPrefix: ptr("")}.Matches(noPath))
}

func TestEventFilterApplyPreservesOrder(t *testing.T) {
	events := []models.EnrichedEvent{
		event("first checkout", nil),
		event("unrelated", nil),
		event("second checkout", nil),
	}

	got := EventFilter{SemanticContains: ptr("checkout")}.Apply(events)

	assert.Len(t, got, 2)
	assert.Equal(t, "first checkout", got[0].SemanticLabel)
	assert.Equal(t, "second checkout", got[1].SemanticLabel)
}

func sessionWithDuration(d time.Duration, eventCount, pageViews int) models.SessionContext {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(d)
	return models.NewSessionContext(models.Session{
		SessionID:      "s1",
		StartedAt:      started,
		EndedAt:        &ended,
		EventCount:     eventCount,
		PageViewsCount: pageViews,
	})
}

func activeSession(eventCount int) models.SessionContext {
	return models.NewSessionContext(models.Session{
		SessionID:  "s1",
		StartedAt:  time.Now().Add(-time.Hour),
		EventCount: eventCount,
		IsActive:   true,
	})
}

func TestSessionFilterMatches(t *testing.T) {
	tests := []struct {
		name    string
		filter  SessionFilter
		session models.SessionContext
		matches bool
	}{
		{"empty filter", SessionFilter{}, sessionWithDuration(time.Minute, 5, 2), true},
		{
			"max duration inclusive",
			SessionFilter{MaxDurationSeconds: ptr(30.0)},
			sessionWithDuration(30*time.Second, 2, 1),
			true,
		},
		{
			"max duration exceeded",
			SessionFilter{MaxDurationSeconds: ptr(30.0)},
			sessionWithDuration(31*time.Second, 2, 1),
			false,
		},
		{
			"min duration met",
			SessionFilter{MinDurationSeconds: ptr(600.0)},
			sessionWithDuration(10*time.Minute, 25, 10),
			true,
		},
		{
			"min duration not met",
			SessionFilter{MinDurationSeconds: ptr(600.0)},
			sessionWithDuration(9*time.Minute, 25, 10),
			false,
		},
		{
			"event count bounds",
			SessionFilter{MinEvents: ptr(2), MaxEvents: ptr(3)},
			sessionWithDuration(time.Minute, 3, 1),
			true,
		},
		{
			"too many events",
			SessionFilter{MaxEvents: ptr(3)},
			sessionWithDuration(time.Minute, 4, 1),
			false,
		},
		{
			"page view bounds",
			SessionFilter{MinPageViews: ptr(2), MaxPageViews: ptr(5)},
			sessionWithDuration(time.Minute, 6, 3),
			true,
		},
		{
			"active session fails max duration",
			SessionFilter{MaxDurationSeconds: ptr(30.0)},
			activeSession(2),
			false,
		},
		{
			"active session fails min duration",
			SessionFilter{MinDurationSeconds: ptr(600.0)},
			activeSession(25),
			false,
		},
		{
			"active session passes event-only filter",
			SessionFilter{MinEvents: ptr(2)},
			activeSession(2),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.filter.Matches(tt.session))
		})
	}
}
