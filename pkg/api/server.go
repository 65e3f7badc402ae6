// Package api exposes the HTTP surface: event ingestion, the per-user
// context read, and the health endpoint.
package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
	"github.com/DanielKusyDev/posthog-session-insights/pkg/queue"
)

// EventIngestor queues a tracker event for asynchronous enrichment.
type EventIngestor interface {
	InsertRawEvent(ctx context.Context, event models.PostHogEvent) error
}

// ContextProvider assembles the per-user context payload.
type ContextProvider interface {
	GetContext(ctx context.Context, userID string) (models.UserContext, error)
}

// WorkerHealthReporter exposes the ingestion worker's health snapshot.
type WorkerHealthReporter interface {
	Health() queue.WorkerHealth
}

// Server is the HTTP server. All dependencies are injected; the server owns
// only the router and the listener lifecycle.
type Server struct {
	ingestor EventIngestor
	contexts ContextProvider
	worker   WorkerHealthReporter
	db       *sql.DB

	httpServer *http.Server
}

// NewServer wires the routes and middleware. worker and db may be nil in
// tests; the health endpoint skips the corresponding checks.
func NewServer(port string, ingestor EventIngestor, contexts ContextProvider, worker WorkerHealthReporter, db *sql.DB) *Server {
	s := &Server{
		ingestor: ingestor,
		contexts: contexts,
		worker:   worker,
		db:       db,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(securityHeaders())
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.POST("/ingest", s.ingestHandler)
	router.GET("/session/context/:user_id", s.contextHandler)
	router.GET("/health", s.healthHandler)
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called. It always
// returns a non-nil error; http.ErrServerClosed signals a clean shutdown.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
