package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"evalia/internal/infrastructure/config"
	"evalia/internal/interfaces/http/middleware"
	"evalia/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	container *Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) *Router {
	return &Router{
		container: NewContainer(db, cfg, log),
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	c := r.container
	engine := c.engine

	engine.Use(middleware.Logger(c.log))
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	engine.GET("/health", c.creditHandler.HealthCheck)

	v1 := engine.Group("/api/v1")
	{
		credits := v1.Group("/credits")
		{
			credits.POST("/grants", c.rateLimiter.Limit(), c.creditHandler.GrantCredits)
			credits.POST("/consume", c.creditHandler.ConsumeCredit)
			credits.POST("/removals", c.creditHandler.RemoveCredits)
			credits.POST("/removals/bulk", c.creditHandler.BulkRemoveCredits)

			credits.GET("/ledger", c.creditHandler.GetLedgerHistory)
			credits.GET("/stats", c.creditHandler.GetCreditStats)
			credits.GET("/:subject_id/availability", c.creditHandler.GetAvailability)
		}

		adminCredits := v1.Group("/admin/credits")
		{
			adminCredits.POST("/:subject_id/recompute", c.adminHandler.RecomputeBalance)
			adminCredits.DELETE("/:subject_id/ledger", c.adminHandler.DeleteSubjectLedger)
		}
	}
}

// GetEngine returns the underlying gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.container.engine
}

// Shutdown gracefully stops the router's background components
func (r *Router) Shutdown(ctx context.Context) error {
	return r.container.Shutdown(ctx)
}
