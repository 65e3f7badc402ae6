package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/config"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/store"
	util "github.com/DanielKusyDev/posthog-session-insights/test/util"
)

func retentionConfig() *config.RetentionConfig {
	return &config.RetentionConfig{
		SessionIdleTimeout: 30 * time.Minute,
		FailedEventTTL:     time.Hour,
		SweepInterval:      time.Hour,
	}
}

func createSession(t *testing.T, st *store.Store, sessionID string, lastActivity time.Time) {
	t.Helper()
	raw := models.RawEvent{
		RawEventID: uuid.New(),
		EventName:  "$pageview",
		UserID:     "u1",
		Timestamp:  lastActivity,
		Properties: models.Properties{"$session_id": sessionID, "$pathname": "/"},
	}
	_, err := st.GetOrCreateSession(context.Background(), st.DB(), raw)
	require.NoError(t, err)
}

func createFailedEvent(t *testing.T, st *store.Store, processedAt time.Time) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.InsertRawEvent(ctx, models.PostHogEvent{
		Event:      "$pageview",
		DistinctID: "u1",
		Properties: models.Properties{},
		Timestamp:  processedAt,
	}))
	claimed, err := st.ClaimPendingEvents(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, claimed)
	id := claimed[len(claimed)-1].RawEventID
	require.NoError(t, st.MarkEventFailed(ctx, id))
	_, err = st.DB().ExecContext(ctx,
		`UPDATE raw_event SET processed_at = $1 WHERE raw_event_id = $2`, processedAt, id)
	require.NoError(t, err)
	return id
}

func TestService_ClosesIdleSessions(t *testing.T) {
	st := store.New(util.SetupTestDatabase(t))
	ctx := context.Background()

	lastActivity := time.Now().UTC().Add(-2 * time.Hour)
	createSession(t, st, "stale", lastActivity)

	svc := NewService(retentionConfig(), st)
	svc.runAll(ctx)

	session, err := st.FetchSession(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, session.IsActive)
	require.NotNil(t, session.EndedAt)
	assert.WithinDuration(t, lastActivity, *session.EndedAt, time.Millisecond)
}

func TestService_PreservesActiveSessions(t *testing.T) {
	st := store.New(util.SetupTestDatabase(t))
	ctx := context.Background()

	createSession(t, st, "fresh", time.Now().UTC())

	svc := NewService(retentionConfig(), st)
	svc.runAll(ctx)

	session, err := st.FetchSession(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.Nil(t, session.EndedAt)
}

func TestService_PurgesOldFailedEvents(t *testing.T) {
	st := store.New(util.SetupTestDatabase(t))
	ctx := context.Background()

	old := createFailedEvent(t, st, time.Now().UTC().Add(-2*time.Hour))
	recent := createFailedEvent(t, st, time.Now().UTC())

	svc := NewService(retentionConfig(), st)
	svc.runAll(ctx)

	_, err := st.FetchRawEvent(ctx, old)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.FetchRawEvent(ctx, recent)
	assert.NoError(t, err, "failed event inside the TTL should be preserved")
}

func TestService_StartStop(t *testing.T) {
	st := store.New(util.SetupTestDatabase(t))

	svc := NewService(retentionConfig(), st)
	svc.Start(context.Background())
	svc.Stop()
	svc.Stop()
}
