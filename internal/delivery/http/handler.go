package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoesync/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	orchestrator *usecase.Orchestrator
}

// NewHandler creates a new HTTP handler.
func NewHandler(orchestrator *usecase.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// HealthCheck returns the health status of the service.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shoesync-backend",
		"version": "1.0.0",
	})
}

// SyncStatus returns the report of the most recent synchronization cycle.
func (h *Handler) SyncStatus(c *gin.Context) {
	report := h.orchestrator.LastReport()
	if report == nil {
		c.JSON(http.StatusOK, gin.H{"status": "no cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}
