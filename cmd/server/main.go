package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/parkjm/restock/internal/config"
	"github.com/parkjm/restock/internal/repository/inventory"
	"github.com/parkjm/restock/internal/repository/memory"
	"github.com/parkjm/restock/internal/repository/mongodb"
	"github.com/parkjm/restock/internal/repository/sheets"
	"github.com/parkjm/restock/internal/scheduler"
	"github.com/parkjm/restock/internal/server/handlers"
	"github.com/parkjm/restock/internal/server/router"
	forecastsvc "github.com/parkjm/restock/internal/service/forecast"
	narrationsvc "github.com/parkjm/restock/internal/service/narration"
	"github.com/parkjm/restock/pkg/clients/agent"
	"github.com/parkjm/restock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var repo inventory.Repository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		repo = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI missing, using in-memory store (data is not persisted)")
		repo = memory.NewRepository()
	}

	forecastSvc := forecastsvc.NewService(repo, cfg.Forecast.WindowDays, cfg.Forecast.HorizonDays, baseLogger.Named("svc.forecast"))

	var agentClient agent.Client
	if cfg.Agent.APIKey != "" {
		agentClient = agent.NewClient(cfg.Agent.APIKey, cfg.Agent.BaseURL, cfg.Agent.Model)
		baseLogger.Info("narration agent client enabled")
	} else {
		baseLogger.Warn("agent api key missing, low-stock narration disabled")
	}
	narrationSvc := narrationsvc.NewService(agentClient, baseLogger.Named("svc.narration"))

	var exporter sheets.Exporter
	if cfg.Sheets.SpreadsheetID != "" {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
	} else {
		baseLogger.Warn("sheet report id missing, alert export disabled")
	}

	handler := handlers.NewInventoryHandler(forecastSvc, narrationSvc, repo, baseLogger.Named("handlers.inventory"))
	engine := router.New(handler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Sweep, forecastSvc, narrationSvc, repo, exporter, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
