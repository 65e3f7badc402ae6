package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/database"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health. Only the process's own components are
// checked: the database pool and the ingestion worker. A dead database makes
// the process unhealthy; the worker snapshot is informational.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: healthStatusHealthy, Version: version.GitCommit}

	if s.db != nil {
		dbHealth, err := database.Health(reqCtx, s.db)
		resp.Database = dbHealth
		if err != nil {
			resp.Status = healthStatusUnhealthy
		}
	}

	if s.worker != nil {
		workerHealth := s.worker.Health()
		resp.Worker = &workerHealth
	}

	httpStatus := http.StatusOK
	if resp.Status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, resp)
}
