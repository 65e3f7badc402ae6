package models

// Severity is the ordinal label attached to a detected pattern. It carries no
// numeric weight.
type Severity string

// Severity values.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Pattern is a named behavioural signal derived from a session's events.
type Pattern struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// UserContext is the composite payload returned by the context endpoint,
// typically fed straight into an LLM prompt.
type UserContext struct {
	UserID             string          `json:"user_id"`
	RecentEvents       []EnrichedEvent `json:"recent_events"`
	LastSessionSummary *string         `json:"last_session_summary"`
	Patterns           []Pattern       `json:"patterns"`
}
