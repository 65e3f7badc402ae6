// Package models defines the persisted entities and in-memory value objects
// shared across the ingestion pipeline, the pattern engine, and the HTTP API.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Properties is the opaque PostHog property map attached to a raw event.
type Properties map[string]any

// Context is the enriched metadata map attached to an enriched event.
type Context map[string]any

// EventType is the coarse classification of an enriched event.
type EventType string

// Event type values.
const (
	EventTypePageview   EventType = "pageview"
	EventTypeClick      EventType = "click"
	EventTypeNavigation EventType = "navigation"
	EventTypeCustom     EventType = "custom"
	EventTypeUnknown    EventType = "unknown"
)

// ActionType is the fine-grained action of an enriched event.
type ActionType string

// Action type values.
const (
	ActionTypeView      ActionType = "view"
	ActionTypeLeave     ActionType = "leave"
	ActionTypeClick     ActionType = "click"
	ActionTypeRageClick ActionType = "rage_click"
	ActionTypeSubmit    ActionType = "submit"
	ActionTypeChange    ActionType = "change"
	ActionTypeNavigate  ActionType = "navigate"
	ActionTypeUnknown   ActionType = "unknown"
)

// RawEventStatus is the processing state of a queued raw event.
// DONE and FAILED are terminal and written exactly once by the worker.
type RawEventStatus string

// Raw event status values.
const (
	RawEventStatusPending RawEventStatus = "PENDING"
	RawEventStatusDone    RawEventStatus = "DONE"
	RawEventStatusFailed  RawEventStatus = "FAILED"
)

// PostHogEvent is the tracker-shaped event accepted by the ingest endpoint.
type PostHogEvent struct {
	Event         string     `json:"event" binding:"required"`
	DistinctID    string     `json:"distinct_id" binding:"required"`
	Properties    Properties `json:"properties" binding:"required"`
	Timestamp     time.Time  `json:"timestamp" binding:"required"`
	ElementsChain *string    `json:"elements_chain"`
}

// RawEvent is an unprocessed queue row, the ownership root of one enriched
// event. Created by the ingest endpoint, mutated only by the worker.
type RawEvent struct {
	RawEventID    uuid.UUID      `json:"raw_event_id"`
	EventName     string         `json:"event_name"`
	UserID        string         `json:"user_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Properties    Properties     `json:"properties"`
	ElementsChain *string        `json:"elements_chain,omitempty"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
	Status        RawEventStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SessionID returns the tracker session id carried in the event properties,
// or "" when absent.
func (e RawEvent) SessionID() string {
	return StringProperty(e.Properties, "$session_id")
}

// PagePath returns the raw $pathname property, or "" when absent.
func (e RawEvent) PagePath() string {
	return StringProperty(e.Properties, "$pathname")
}

// StringProperty reads a string-valued property, returning "" when the key is
// missing or holds a non-string value.
func StringProperty(props Properties, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// EnrichedEvent is the derived, classified, session-attached record consumed
// downstream. Append-only: exactly one row per successfully processed raw row.
type EnrichedEvent struct {
	EnrichedEventID uuid.UUID  `json:"enriched_event_id"`
	RawEventID      uuid.UUID  `json:"raw_event_id"`
	UserID          string     `json:"user_id"`
	SessionID       string     `json:"session_id"`
	Timestamp       time.Time  `json:"timestamp"`
	EventName       string     `json:"event_name"`
	EventType       EventType  `json:"event_type"`
	ActionType      ActionType `json:"action_type"`
	SemanticLabel   string     `json:"semantic_label"`
	PagePath        *string    `json:"page_path,omitempty"`
	PageTitle       *string    `json:"page_title,omitempty"`
	ElementType     *string    `json:"element_type,omitempty"`
	ElementText     *string    `json:"element_text,omitempty"`
	Context         Context    `json:"context,omitempty"`
	SequenceNumber  int        `json:"sequence_number"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ElementAttribute is a single data-ph-capture-attribute pair from the
// elements chain. Attributes are kept as a slice so the order they appeared
// in the chain is preserved for label enrichment.
type ElementAttribute struct {
	Name  string
	Value string
}

// ParsedElements is the structured result of decoding an elements_chain
// string. All fields are best-effort; a malformed chain yields a partial
// (possibly zero) value, never an error.
type ParsedElements struct {
	ElementType string
	ElementText string
	Attributes  []ElementAttribute
	Hierarchy   []string
}

// Attribute returns the value of the named attribute and whether it was set.
func (p ParsedElements) Attribute(name string) (string, bool) {
	for _, a := range p.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// EventClassification pairs the coarse and fine classification of an event.
type EventClassification struct {
	EventType  EventType
	ActionType ActionType
}

// PageInfo carries the normalized page path and a display title derived from
// event properties.
type PageInfo struct {
	PagePath  string
	PageTitle string
}
