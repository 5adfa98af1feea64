package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/viniciosgnr/MMT/internal/clients/redis"
	"github.com/viniciosgnr/MMT/internal/db"
	"github.com/viniciosgnr/MMT/internal/handlers"
	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/observability"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/server"
	"github.com/viniciosgnr/MMT/internal/services"
	"github.com/viniciosgnr/MMT/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "mmt-backend",
		Environment: utils.GetEnv("GO_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Per-sample lock (redis when configured, in-process otherwise)
	locker, err := redis.NewLockerFromEnv(log)
	if err != nil {
		log.Error("Could not init sample locker", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	samplePointRepo := repos.NewSamplePointRepo(thePG, log)
	sampleRepo := repos.NewSampleRepo(thePG, log)
	sampleResultRepo := repos.NewSampleResultRepo(thePG, log)
	statusHistoryRepo := repos.NewSampleStatusHistoryRepo(thePG, log)
	alertRepo := repos.NewAlertRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	slaService, err := services.NewSLAService(log, utils.GetEnv("SLA_MATRIX_PATH", "", log))
	if err != nil {
		log.Error("Could not init SLAService", "error", err)
		os.Exit(1)
	}
	extractor := services.NewReportExtractor(log)
	historyService := services.NewHistoryService(thePG, log, sampleResultRepo)
	validationService := services.NewValidationService(thePG, log, historyService)
	lifecycleService := services.NewLifecycleService(thePG, log, locker, sampleRepo, sampleResultRepo, statusHistoryRepo, extractor, validationService)
	samplePointService := services.NewSamplePointService(thePG, log, samplePointRepo, slaService)
	sampleService := services.NewSampleService(thePG, log, sampleRepo, samplePointRepo, sampleResultRepo, statusHistoryRepo)
	alertService := services.NewAlertService(thePG, log, alertRepo, sampleRepo)

	sweepMinutes := utils.GetEnvAsInt("ALERT_SWEEP_INTERVAL_MINUTES", 60, log)
	go alertService.RunSweeper(context.Background(), time.Duration(sweepMinutes)*time.Minute)

	// Handlers
	log.Info("Setting up Handlers from main...")
	samplePointHandler := handlers.NewSamplePointHandler(log, samplePointService, historyService)
	sampleHandler := handlers.NewSampleHandler(log, sampleService, lifecycleService)
	alertHandler := handlers.NewAlertHandler(log, alertService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		SamplePointHandler: samplePointHandler,
		SampleHandler:      sampleHandler,
		AlertHandler:       alertHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
