package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// contextHandler handles GET /session/context/:user_id. A user with no
// recorded activity still gets 200 with an empty payload; only
// infrastructure failures produce an error status.
func (s *Server) contextHandler(c *gin.Context) {
	userID := c.Param("user_id")

	result, err := s.contexts.GetContext(c.Request.Context(), userID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, result)
}
