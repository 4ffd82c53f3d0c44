package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoicedash/internal/port"
)

const readinessTimeout = 2 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checkers []port.HealthChecker
}

// NewHealthHandler creates a new HealthHandler. Readiness pings every checker.
func NewHealthHandler(checkers ...port.HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	failing := gin.H{}
	for _, chk := range h.checkers {
		if err := chk.Ping(ctx); err != nil {
			failing[chk.Name()] = err.Error()
		}
	}
	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "errors": failing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
