package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/enrichment"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/store"
	util "github.com/DanielKusyDev/posthog-session-insights/test/util"
)

func newTestProcessor(t *testing.T) (*Processor, *store.Store) {
	t.Helper()
	st := store.New(util.SetupTestDatabase(t))
	labels := enrichment.NewLabelBuilder(nil, nil, 0)
	return NewProcessor(st, enrichment.NewEnricher(labels, nil)), st
}

func queueEvent(t *testing.T, st *store.Store, event models.PostHogEvent) models.RawEvent {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.InsertRawEvent(ctx, event))
	claimed, err := st.ClaimPendingEvents(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, claimed)
	return claimed[len(claimed)-1]
}

func TestProcessorPageview(t *testing.T) {
	processor, st := newTestProcessor(t)
	ctx := context.Background()

	raw := queueEvent(t, st, models.PostHogEvent{
		Event:      "$pageview",
		DistinctID: "user-1",
		Properties: models.Properties{
			"$session_id": "sess-1",
			"$pathname":   "/home",
			"title":       "Home Page",
		},
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	})

	require.NoError(t, processor.Process(ctx, raw))

	session, err := st.FetchSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, 1, session.EventCount)
	assert.Equal(t, 1, session.PageViewsCount)
	assert.Equal(t, 0, session.ClicksCount)
	require.NotNil(t, session.FirstPage)
	assert.Equal(t, "/home", *session.FirstPage)
	require.NotNil(t, session.LastPage)
	assert.Equal(t, "/home", *session.LastPage)
	assert.True(t, session.IsActive)

	events, err := st.FetchSessionEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	enriched := events[0]
	assert.Equal(t, raw.RawEventID, enriched.RawEventID)
	assert.Equal(t, models.EventTypePageview, enriched.EventType)
	assert.Equal(t, models.ActionTypeView, enriched.ActionType)
	assert.Equal(t, "Viewed Home Page", enriched.SemanticLabel)
	assert.Equal(t, 1, enriched.SequenceNumber)
	require.NotNil(t, enriched.PagePath)
	assert.Equal(t, "/home", *enriched.PagePath)

	done, err := st.FetchRawEvent(ctx, raw.RawEventID)
	require.NoError(t, err)
	assert.Equal(t, models.RawEventStatusDone, done.Status)
}

func TestProcessorAutocaptureSubmit(t *testing.T) {
	processor, st := newTestProcessor(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := queueEvent(t, st, models.PostHogEvent{
		Event:      "$pageview",
		DistinctID: "user-1",
		Properties: models.Properties{"$session_id": "sess-1", "$pathname": "/contact"},
		Timestamp:  now,
	})
	require.NoError(t, processor.Process(ctx, first))

	chain := `button:text="Send"attr__data-ph-capture-attribute-form-id="contact"`
	second := queueEvent(t, st, models.PostHogEvent{
		Event:         "$autocapture",
		DistinctID:    "user-1",
		ElementsChain: &chain,
		Properties: models.Properties{
			"$session_id": "sess-1",
			"$pathname":   "/contact",
			"$event_type": "submit",
		},
		Timestamp: now.Add(10 * time.Second),
	})
	require.NoError(t, processor.Process(ctx, second))

	events, err := st.FetchSessionEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	submit := events[1]
	assert.Equal(t, models.EventTypeClick, submit.EventType)
	assert.Equal(t, models.ActionTypeSubmit, submit.ActionType)
	assert.Equal(t, "Clicked 'Send' button in form", submit.SemanticLabel)
	assert.Equal(t, 2, submit.SequenceNumber)
	require.NotNil(t, submit.ElementText)
	assert.Equal(t, "Send", *submit.ElementText)
	assert.Equal(t, "contact", submit.Context["form_id"])

	session, err := st.FetchSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, session.EventCount)
	assert.Equal(t, 2, session.PageViewsCount)
}

func TestProcessorRejectsEventWithoutSession(t *testing.T) {
	processor, st := newTestProcessor(t)
	ctx := context.Background()

	raw := queueEvent(t, st, models.PostHogEvent{
		Event:      "$pageview",
		DistinctID: "user-1",
		Properties: models.Properties{"$pathname": "/home"},
		Timestamp:  time.Now().UTC(),
	})

	err := processor.Process(ctx, raw)
	require.ErrorIs(t, err, ErrMissingSession)

	// Nothing was written and the row stays PENDING until the worker
	// marks it FAILED.
	_, err = st.FetchLatestSession(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	count, err := st.CountUserEvents(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	pending, err := st.FetchRawEvent(ctx, raw.RawEventID)
	require.NoError(t, err)
	assert.Equal(t, models.RawEventStatusPending, pending.Status)

	require.NoError(t, st.MarkEventFailed(ctx, raw.RawEventID))
	failed, err := st.FetchRawEvent(ctx, raw.RawEventID)
	require.NoError(t, err)
	assert.Equal(t, models.RawEventStatusFailed, failed.Status)
}

func TestProcessorRollsBackOnConstraintViolation(t *testing.T) {
	processor, st := newTestProcessor(t)
	ctx := context.Background()

	raw := queueEvent(t, st, models.PostHogEvent{
		Event:      "$pageview",
		DistinctID: "user-1",
		Properties: models.Properties{"$session_id": "sess-1", "$pathname": "/home"},
		Timestamp:  time.Now().UTC(),
	})

	// Deleting the raw row makes the enriched-event FK fail mid
	// transaction; the session write must roll back with it.
	_, err := st.DB().ExecContext(ctx, `DELETE FROM raw_event WHERE raw_event_id = $1`, raw.RawEventID)
	require.NoError(t, err)

	require.Error(t, processor.Process(ctx, raw))

	_, err = st.FetchSession(ctx, "sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
