package patterns

import (
	"sort"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// PatternRule is a declarative behavioural rule. A rule matches a session's
// event stream when its positive filter accumulates at least MinCount
// matches (optionally clustered inside TimeWindow) and no disqualifying
// negative match exists. Rules with only a SessionFilter describe the session
// shape instead of its events.
type PatternRule struct {
	Code        string
	Description string
	Severity    models.Severity

	// Event-based conditions.
	Filter             *EventFilter
	MinCount           int // required positive matches; zero means one
	TimeWindow         *time.Duration
	NegativeFilter     *EventFilter
	NegativeTimeWindow *time.Duration

	// Session-based condition.
	SessionFilter *SessionFilter
}

// Matches evaluates the rule against a session's events and context.
func (r PatternRule) Matches(events []models.EnrichedEvent, session models.SessionContext) bool {
	// Session filter first, it is the cheapest check.
	if r.SessionFilter != nil && !r.SessionFilter.Matches(session) {
		return false
	}

	// Session-only rule.
	if r.Filter == nil {
		return true
	}

	sorted := sortBySequence(events)

	positives := r.Filter.Apply(sorted)
	if r.TimeWindow != nil {
		positives = clusterWithinWindow(positives, *r.TimeWindow)
	}

	if len(positives) < r.minCount() {
		return false
	}

	if r.NegativeFilter == nil {
		return true
	}

	negatives := r.NegativeFilter.Apply(sorted)
	if r.NegativeTimeWindow == nil {
		return len(negatives) == 0
	}

	// A negative only disqualifies when it lands inside the window after the
	// last positive.
	lastPositive := positives[len(positives)-1].Timestamp
	deadline := lastPositive.Add(*r.NegativeTimeWindow)
	for _, n := range negatives {
		if !n.Timestamp.Before(lastPositive) && !n.Timestamp.After(deadline) {
			return false
		}
	}
	return true
}

// Pattern returns the signal this rule emits when it matches.
func (r PatternRule) Pattern() models.Pattern {
	return models.Pattern{
		Code:        r.Code,
		Description: r.Description,
		Severity:    r.Severity,
	}
}

func (r PatternRule) minCount() int {
	if r.MinCount <= 0 {
		return 1
	}
	return r.MinCount
}

// sortBySequence returns a copy of events ordered by sequence number
// ascending, stable on ties.
func sortBySequence(events []models.EnrichedEvent) []models.EnrichedEvent {
	sorted := make([]models.EnrichedEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SequenceNumber < sorted[j].SequenceNumber
	})
	return sorted
}

// clusterWithinWindow keeps events that are within the window of at least one
// already-retained event. The cluster is seeded by the first event and grows
// transitively; each event is included at most once.
func clusterWithinWindow(events []models.EnrichedEvent, window time.Duration) []models.EnrichedEvent {
	if len(events) == 0 {
		return nil
	}

	kept := []models.EnrichedEvent{events[0]}
	for _, e := range events[1:] {
		for _, prev := range kept {
			if absDuration(e.Timestamp.Sub(prev.Timestamp)) <= window {
				kept = append(kept, e)
				break
			}
		}
	}
	return kept
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
