package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/viniciosgnr/MMT/internal/handlers"
	"github.com/viniciosgnr/MMT/internal/utils"
)

type RouterConfig struct {
	SamplePointHandler *handlers.SamplePointHandler
	SampleHandler      *handlers.SampleHandler
	AlertHandler       *handlers.AlertHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("mmt-backend"))

	// Cors
	origins := []string{
		"http://localhost:80",
		"http://localhost:3000",
		"http://localhost:5174",
	}
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", nil); raw != "" {
		origins = strings.Split(raw, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/chemical")
	{
		// Sampling points
		api.POST("/points", cfg.SamplePointHandler.Create)
		api.GET("/points", cfg.SamplePointHandler.List)
		api.GET("/points/:id", cfg.SamplePointHandler.Get)
		api.PUT("/points/:id", cfg.SamplePointHandler.Update)
		api.GET("/points/:id/sla", cfg.SamplePointHandler.SLA)
		api.GET("/points/:id/history", cfg.SamplePointHandler.History)
		// Samples
		api.POST("/samples", cfg.SampleHandler.Create)
		api.GET("/samples", cfg.SampleHandler.List)
		api.GET("/samples/:id", cfg.SampleHandler.Get)
		api.PUT("/samples/:id", cfg.SampleHandler.Update)
		api.PUT("/samples/:id/status", cfg.SampleHandler.TransitionStatus)
		api.POST("/samples/:id/report", cfg.SampleHandler.SubmitReport)
		api.GET("/samples/:id/history", cfg.SampleHandler.StatusHistory)
		api.GET("/samples/:id/results", cfg.SampleHandler.Results)
		// Alerts
		api.GET("/alerts", cfg.AlertHandler.List)
		api.POST("/alerts/sweep", cfg.AlertHandler.Sweep)
		api.PUT("/alerts/:id/acknowledge", cfg.AlertHandler.Acknowledge)
	}

	return router
}
