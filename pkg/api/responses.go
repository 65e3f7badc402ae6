package api

import (
	"github.com/DanielKusyDev/posthog-session-insights/pkg/database"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/queue"
)

// IngestResponse is returned by POST /ingest.
type IngestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database,omitempty"`
	Worker   *queue.WorkerHealth    `json:"worker,omitempty"`
}
