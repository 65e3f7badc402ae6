package enrichment

import (
	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/google/uuid"
)

// Enricher runs the pure part of the enrichment pipeline: parse, classify,
// label, and assemble context for a single raw event. Persistence and session
// reconciliation happen around it in the worker's per-event transaction.
type Enricher struct {
	labels       *LabelBuilder
	excludedKeys []string
}

// NewEnricher creates an enricher. A nil label builder or excluded-key slice
// falls back to the package defaults.
func NewEnricher(labels *LabelBuilder, excludedKeys []string) *Enricher {
	if labels == nil {
		labels = NewLabelBuilder(nil, nil, 0)
	}
	if excludedKeys == nil {
		excludedKeys = DefaultContextExcludedKeys
	}
	return &Enricher{labels: labels, excludedKeys: excludedKeys}
}

// Enrich builds the enriched record for a raw event attached to the given
// session. The sequence number is the session's event count at the time the
// session row was read, plus one.
func (e *Enricher) Enrich(event models.RawEvent, session models.Session) models.EnrichedEvent {
	var chain string
	if event.ElementsChain != nil {
		chain = *event.ElementsChain
	}

	elementInfo := ParseElementsChain(chain)
	classification := ClassifyEvent(event.EventName, event.Properties)
	pageInfo := ExtractPageInfo(event.Properties)
	label := e.labels.Build(classification, pageInfo, elementInfo, event.EventName, event.Properties)
	context := BuildContext(event.EventName, event.Properties, elementInfo, e.excludedKeys)

	enriched := models.EnrichedEvent{
		EnrichedEventID: uuid.New(),
		RawEventID:      event.RawEventID,
		UserID:          event.UserID,
		SessionID:       session.SessionID,
		Timestamp:       event.Timestamp,
		EventName:       event.EventName,
		EventType:       classification.EventType,
		ActionType:      classification.ActionType,
		SemanticLabel:   label,
		PagePath:        optional(pageInfo.PagePath),
		PageTitle:       optional(pageInfo.PageTitle),
		ElementType:     optional(elementInfo.ElementType),
		ElementText:     optional(elementInfo.ElementText),
		Context:         context,
		SequenceNumber:  session.EventCount + 1,
	}
	return enriched
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
