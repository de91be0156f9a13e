package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"s3gateway/internal/port"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	storage port.ObjectStorage
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(storage port.ObjectStorage) *HealthHandler {
	return &HealthHandler{storage: storage}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "storage not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
