package api

import "github.com/DanielKusyDev/posthog-session-insights/pkg/models"

// IngestRequest is the body of POST /ingest. The tracker event is wrapped in
// an envelope so the endpoint can grow batch support without a breaking
// change.
type IngestRequest struct {
	Event models.PostHogEvent `json:"event" binding:"required"`
}
