package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smart-parking-backend/config"
	"smart-parking-backend/internal/api"
	"smart-parking-backend/internal/audit"
	"smart-parking-backend/internal/booking"
	"smart-parking-backend/internal/db"
	"smart-parking-backend/internal/logging"
	"smart-parking-backend/internal/model"
	"smart-parking-backend/internal/store"
	"smart-parking-backend/internal/sweep"
)

func main() {
	// A missing .env is fine; the config file is authoritative.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().Str("config", configPath).Msg("configuration loaded")

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Msg("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	// Seed the fixed fleet; existing slots are left untouched.
	fleet := model.NewFleet(cfg.Slots.Count, cfg.Slots.Prefix, cfg.Slots.Floor)
	if err := appStore.SeedSlots(ctx, fleet); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed parking slots")
	}
	logger.Info().Int("slots", len(fleet)).Msg("parking fleet seeded")

	auditPool := audit.NewWorkerPool(cfg.Audit.Workers, cfg.Audit.QueueSize, appStore, logger)
	auditPool.Start(ctx)

	manager := booking.NewManager(appStore)
	gate := booking.NewGate(appStore, auditPool)

	sweeper := sweep.NewSweeper(&cfg.Sweep, appStore, logger)
	go sweeper.Run(ctx)

	handler := api.NewHandler(cfg, appStore, manager, gate, logger)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown")
	}

	logger.Info().Msg("server gracefully stopped")
}
