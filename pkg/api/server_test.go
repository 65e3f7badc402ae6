package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIngestor struct {
	received []models.PostHogEvent
	err      error
}

func (f *fakeIngestor) InsertRawEvent(_ context.Context, event models.PostHogEvent) error {
	f.received = append(f.received, event)
	return f.err
}

type fakeContextProvider struct {
	result models.UserContext
	err    error
}

func (f *fakeContextProvider) GetContext(_ context.Context, userID string) (models.UserContext, error) {
	if f.err != nil {
		return models.UserContext{}, f.err
	}
	result := f.result
	result.UserID = userID
	return result, nil
}

type fakeWorkerHealth struct {
	health queue.WorkerHealth
}

func (f *fakeWorkerHealth) Health() queue.WorkerHealth {
	return f.health
}

func serveRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const validIngestBody = `{
	"event": {
		"event": "$pageview",
		"distinct_id": "user-1",
		"properties": {"$session_id": "sess-1", "$pathname": "/pricing"},
		"timestamp": "2024-05-01T12:00:00Z"
	}
}`

func TestIngestHandler(t *testing.T) {
	t.Run("accepts a valid event", func(t *testing.T) {
		ingestor := &fakeIngestor{}
		s := NewServer("8080", ingestor, &fakeContextProvider{}, nil, nil)

		rec := serveRequest(t, s, http.MethodPost, "/ingest", validIngestBody)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, ingestor.received, 1)
		assert.Equal(t, "$pageview", ingestor.received[0].Event)
		assert.Equal(t, "user-1", ingestor.received[0].DistinctID)

		var resp IngestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "accepted", resp.Status)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		s := NewServer("8080", &fakeIngestor{}, &fakeContextProvider{}, nil, nil)

		rec := serveRequest(t, s, http.MethodPost, "/ingest", `{not json`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("rejects a missing distinct_id", func(t *testing.T) {
		ingestor := &fakeIngestor{}
		s := NewServer("8080", ingestor, &fakeContextProvider{}, nil, nil)

		body := `{"event": {"event": "$pageview", "properties": {}, "timestamp": "2024-05-01T12:00:00Z"}}`
		rec := serveRequest(t, s, http.MethodPost, "/ingest", body)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, ingestor.received)
	})

	t.Run("maps insert failures to 500", func(t *testing.T) {
		ingestor := &fakeIngestor{err: errors.New("connection refused")}
		s := NewServer("8080", ingestor, &fakeContextProvider{}, nil, nil)

		rec := serveRequest(t, s, http.MethodPost, "/ingest", validIngestBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "internal server error", resp.Error)
	})
}

func TestContextHandler(t *testing.T) {
	t.Run("returns the assembled context", func(t *testing.T) {
		summary := "Viewed 2 pages."
		provider := &fakeContextProvider{
			result: models.UserContext{
				RecentEvents:       []models.EnrichedEvent{{EventName: "$pageview"}},
				LastSessionSummary: &summary,
				Patterns:           []models.Pattern{{Code: "quick_bounce", Severity: models.SeverityLow}},
			},
		}
		s := NewServer("8080", &fakeIngestor{}, provider, nil, nil)

		rec := serveRequest(t, s, http.MethodGet, "/session/context/user-1", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.UserContext
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "user-1", resp.UserID)
		assert.Len(t, resp.RecentEvents, 1)
		require.NotNil(t, resp.LastSessionSummary)
		assert.Equal(t, summary, *resp.LastSessionSummary)
		require.Len(t, resp.Patterns, 1)
		assert.Equal(t, "quick_bounce", resp.Patterns[0].Code)
	})

	t.Run("unknown user still gets 200", func(t *testing.T) {
		provider := &fakeContextProvider{
			result: models.UserContext{
				RecentEvents: []models.EnrichedEvent{},
				Patterns:     []models.Pattern{},
			},
		}
		s := NewServer("8080", &fakeIngestor{}, provider, nil, nil)

		rec := serveRequest(t, s, http.MethodGet, "/session/context/ghost", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.UserContext
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ghost", resp.UserID)
		assert.Empty(t, resp.RecentEvents)
		assert.Nil(t, resp.LastSessionSummary)
		assert.Empty(t, resp.Patterns)
	})

	t.Run("maps read failures to 500", func(t *testing.T) {
		provider := &fakeContextProvider{err: errors.New("connection refused")}
		s := NewServer("8080", &fakeIngestor{}, provider, nil, nil)

		rec := serveRequest(t, s, http.MethodGet, "/session/context/user-1", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy without optional checks", func(t *testing.T) {
		s := NewServer("8080", &fakeIngestor{}, &fakeContextProvider{}, nil, nil)

		rec := serveRequest(t, s, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.NotEmpty(t, resp.Version)
		assert.Nil(t, resp.Database)
		assert.Nil(t, resp.Worker)
	})

	t.Run("includes the worker snapshot", func(t *testing.T) {
		worker := &fakeWorkerHealth{health: queue.WorkerHealth{Status: "idle", EventsProcessed: 42}}
		s := NewServer("8080", &fakeIngestor{}, &fakeContextProvider{}, worker, nil)

		rec := serveRequest(t, s, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Worker)
		assert.Equal(t, "idle", resp.Worker.Status)
		assert.Equal(t, 42, resp.Worker.EventsProcessed)
	})
}

func TestSecurityHeaders(t *testing.T) {
	s := NewServer("8080", &fakeIngestor{}, &fakeContextProvider{}, nil, nil)

	rec := serveRequest(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}
