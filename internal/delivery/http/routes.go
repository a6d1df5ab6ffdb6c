package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shoesync/backend/config"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sync := v1.Group("/sync")
		{
			sync.GET("/status", handler.SyncStatus)
		}
	}

	return router
}
