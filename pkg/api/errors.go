package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/services"
)

// mapServiceError maps service-layer errors to an HTTP status and a safe
// message for the response body.
func mapServiceError(err error) (int, string) {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return http.StatusUnprocessableEntity, validErr.Error()
	}
	if errors.Is(err, services.ErrNotFound) {
		return http.StatusNotFound, "resource not found"
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return http.StatusInternalServerError, "internal server error"
}
