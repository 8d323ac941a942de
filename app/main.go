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

	"github.com/dealcomb/dealcomb/app/api"
	"github.com/dealcomb/dealcomb/app/cfg"
	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/fetch"
	"github.com/dealcomb/dealcomb/app/scraper"
	"github.com/dealcomb/dealcomb/app/sites"
	"github.com/dealcomb/dealcomb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting Deal Comb server (version %s)...", appCfg.Version)

	log.Println("Connecting to database...")
	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort,
		appCfg.DBUser, appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %v)", version, dirty)

	log.Printf("Loading site configurations from %s...", appCfg.SitesDir)
	configCache := sites.NewConfigCache(appCfg.SitesDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load site configurations: ", err)
	}
	log.Printf("Loaded %d site configurations", configCache.GetConfigCount())

	listingRepo := database.NewListingRepository(db)
	pageRepo := database.NewPageRepository(db)
	favoriteRepo := database.NewFavoriteRepository(db)
	runRepo := database.NewRunRepository(db)
	siteRepo := database.NewSiteRepository(db)

	fetchClient := fetch.NewClient(pageRepo, appCfg.ScraperAPIKey, appCfg.UserAgent)
	if !fetchClient.ProxyConfigured() {
		log.Println("SCRAPER_API_KEY not set, fetching pages directly")
	}

	runner := scraper.NewRunner(configCache, fetchClient, listingRepo, siteRepo, runRepo,
		time.Duration(appCfg.ScrapeCooldown)*time.Second)

	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(configCache, siteRepo, listingRepo, runner, fetchClient)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, listingRepo, pageRepo, favoriteRepo,
		runRepo, siteRepo, runner, fetchClient, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)
		log.Printf("  Listings:      http://localhost:%s/api/listings", appCfg.Port)
		log.Printf("  Scrape:        http://localhost:%s/api/scrape (POST)", appCfg.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Deal Comb server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Deal Comb server shutdown complete")
}
