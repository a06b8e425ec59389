package api

import (
	"ev-route-planner/internal/api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler *handlers.TripHandler
	// Optional; requests are traced when set.
	NewRelicApp *newrelic.Application
	Logger      *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	router.Use(requestID(), loggingMiddleware(logger))

	router.GET("/health", handlers.Health)

	v1 := router.Group("/v1")
	{
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Create)
			trips.GET("", deps.TripHandler.List)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.POST("/:id/selection", deps.TripHandler.Select)
			trips.GET("/:id/kml", deps.TripHandler.KML)
		}
	}

	return router
}
