package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newswatch/newswatch/app/activity"
	"github.com/newswatch/newswatch/app/api"
	"github.com/newswatch/newswatch/app/cache"
	"github.com/newswatch/newswatch/app/cfg"
	"github.com/newswatch/newswatch/app/curated"
	"github.com/newswatch/newswatch/app/database"
	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/fetch"
	"github.com/newswatch/newswatch/app/sources"
	"github.com/newswatch/newswatch/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting Newswatch server", "version", appConfig.Version)

	// Snapshot database
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open snapshot database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Info("Snapshot database ready", "path", appConfig.DBPath, "schema_version", version, "dirty", dirty)

	// Source registry
	registry := sources.NewRegistry()
	if err := registry.Load(appConfig.SourcesFile); err != nil {
		log.Fatal("Failed to load source registry: ", err)
	}

	// Activity baselines (the external measurement job may not have run
	// yet; start with an empty table and let the reload task pick it up)
	engine := activity.NewEngine(registry.Regions(), registry.ExcludedRegions())
	if baselines, windowHours, err := sources.LoadBaselines(appConfig.BaselinesFile); err != nil {
		slog.Warn("Baselines unavailable, activity levels will stay normal", "error", err)
	} else {
		engine.SetBaselines(baselines)
		slog.Info("Activity baselines loaded", "regions", len(baselines), "window_hours", windowHours)
	}

	// Fetch pipeline
	httpClient := &http.Client{Timeout: 20 * time.Second}
	fetchScheduler := fetch.NewScheduler([]fetch.Fetcher{
		fetch.NewBridgeFetcher(httpClient, appConfig.UserAgent),
		fetch.NewMastodonFetcher(httpClient, appConfig.UserAgent),
		fetch.NewBlueskyFetcher(httpClient, appConfig.UserAgent),
	}, fetch.DefaultPolicies())
	aggregator := fetch.NewAggregator(fetchScheduler, registry)

	// Two-tier cache
	snapshotRepo := database.NewSnapshotRepository(db)
	cacheService := cache.NewService(snapshotRepo, aggregator.FetchAll,
		time.Duration(appConfig.CacheTTL)*time.Second,
		time.Duration(appConfig.SnapshotThreshold)*time.Second)

	curatedClient := curated.NewClient(httpClient, appConfig.CuratedURL, appConfig.UserAgent)

	// Background tasks
	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount, "interval", appConfig.WarmInterval)
	taskScheduler := tasks.NewScheduler(cacheService, snapshotRepo, engine)
	taskScheduler.Start()
	defer taskScheduler.Stop()

	// HTTP server
	apiHandler := api.NewHandler(cacheService, feed.NewComposer(), engine, registry, curatedClient)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Newswatch server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Task scheduler is stopped via defer
	slog.Info("Newswatch server shutdown complete")
}
