package queue

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/enrichment"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/store"
)

// Processor runs the enrichment pipeline for single raw events. Each call
// opens one transaction covering session reconciliation, the enriched insert,
// the session counter update, and the DONE mark, so a failure anywhere rolls
// the whole event back.
type Processor struct {
	store    *store.Store
	enricher *enrichment.Enricher
}

// NewProcessor creates a processor over the given store and enricher.
func NewProcessor(st *store.Store, enricher *enrichment.Enricher) *Processor {
	return &Processor{store: st, enricher: enricher}
}

// Process enriches one raw event end to end.
func (p *Processor) Process(ctx context.Context, event models.RawEvent) error {
	if event.SessionID() == "" {
		return fmt.Errorf("raw_event %s: %w", event.RawEventID, ErrMissingSession)
	}

	return p.store.WithTx(ctx, func(tx *sql.Tx) error {
		session, err := p.store.GetOrCreateSession(ctx, tx, event)
		if err != nil {
			return err
		}

		enriched := p.enricher.Enrich(event, session)

		if err := p.store.InsertEnrichedEvent(ctx, tx, enriched); err != nil {
			return err
		}
		if err := p.store.UpdateSessionActivity(ctx, tx, session.SessionID, event, enriched); err != nil {
			return err
		}
		return p.store.MarkEventDone(ctx, tx, event.RawEventID)
	})
}
