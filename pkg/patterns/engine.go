package patterns

import "github.com/DanielKusyDev/posthog-session-insights/pkg/models"

// Engine evaluates a fixed rule set against a session's event stream. The
// rule set is supplied at construction time.
type Engine struct {
	rules []PatternRule
}

// NewEngine creates a pattern engine over the given rules.
func NewEngine(rules []PatternRule) *Engine {
	return &Engine{rules: rules}
}

// Detect returns the patterns emitted by every matching rule, in rule order.
// Duplicate rules yield duplicate patterns.
func (e *Engine) Detect(events []models.EnrichedEvent, session models.SessionContext) []models.Pattern {
	patterns := make([]models.Pattern, 0)
	for _, rule := range e.rules {
		if rule.Matches(events, session) {
			patterns = append(patterns, rule.Pattern())
		}
	}
	return patterns
}
