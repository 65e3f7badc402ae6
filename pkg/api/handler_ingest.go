package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ingestHandler handles POST /ingest. The event is queued as a PENDING raw
// row and enriched asynchronously by the worker; the response only
// acknowledges acceptance.
func (s *Server) ingestHandler(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.ingestor.InsertRawEvent(c.Request.Context(), req.Event); err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusAccepted, IngestResponse{
		Status:  "accepted",
		Message: "event queued for processing",
	})
}
