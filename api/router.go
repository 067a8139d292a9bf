package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/siteforge/harvest/api/handler"
	"github.com/siteforge/harvest/api/middleware"
	"github.com/siteforge/harvest/config"
	"github.com/siteforge/harvest/crawler"
	"github.com/siteforge/harvest/extractor"
	"github.com/siteforge/harvest/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(b *extractor.Browser, ex *extractor.Extractor, policy crawler.PolicyChecker, st store.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(b, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.APIRateLimit))

	// Harvest
	protected.POST("/harvest", handler.PostHarvest(ex, policy, st, cfg))
	protected.GET("/harvest/:id", handler.GetHarvest())

	// Classify
	protected.POST("/classify", handler.Classify())

	return r
}
