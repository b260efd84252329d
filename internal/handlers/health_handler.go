package handlers

import (
	"context"
	"net/http"
	"time"

	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler reports whether the service and its database are up.
type HealthHandler struct {
	database Pinger
}

// NewHealthHandler creates a HealthHandler probing database.
func NewHealthHandler(database Pinger) *HealthHandler {
	return &HealthHandler{database: database}
}

// Health answers 200 when the database responds and 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.database(ctx); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "Database unavailable.")
			return
		}
	}
	response.Success(c, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
