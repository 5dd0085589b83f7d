package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/perfsage/perfsage/internal/analysis"
	"github.com/perfsage/perfsage/internal/analytics"
	"github.com/perfsage/perfsage/internal/config"
	"github.com/perfsage/perfsage/internal/identity"
	"github.com/perfsage/perfsage/internal/metrics"
	"github.com/perfsage/perfsage/internal/quota"
	"github.com/perfsage/perfsage/internal/settings"
	"github.com/perfsage/perfsage/internal/store"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config          config.Config
	Store           *store.Context
	Identity        *identity.Service
	Quotas          *quota.Tracker
	AnalysisService *analysis.Service
	SettingsService *settings.Service
	Analytics       *analytics.Service
	Logger          *slog.Logger
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.Identity != nil {
		identity.RegisterRoutes(router, deps.Identity)

		api := router.Group("/v1")
		api.Use(identity.AuthMiddleware(deps.Identity.Sessions()))

		if deps.AnalysisService != nil {
			analysis.RegisterRoutes(api, deps.AnalysisService, deps.Quotas, deps.Logger)
		}
		if deps.SettingsService != nil {
			settings.RegisterRoutes(api, deps.SettingsService, deps.Logger)
		}
		if deps.Analytics != nil {
			analytics.RegisterRoutes(api, deps.Analytics)
		}
	}

	return router
}
