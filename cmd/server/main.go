package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pauljones0/dealboard/internal/ai"
	"github.com/pauljones0/dealboard/internal/cache"
	"github.com/pauljones0/dealboard/internal/config"
	"github.com/pauljones0/dealboard/internal/httpserver"
	"github.com/pauljones0/dealboard/internal/httpserver/handlers/extract"
	"github.com/pauljones0/dealboard/internal/jobs"
	"github.com/pauljones0/dealboard/internal/leaderboard"
	"github.com/pauljones0/dealboard/internal/logger"
	"github.com/pauljones0/dealboard/internal/marketplace"
	"github.com/pauljones0/dealboard/internal/metrics"
	"github.com/pauljones0/dealboard/internal/notifier"
	"github.com/pauljones0/dealboard/internal/processor"
	"github.com/pauljones0/dealboard/internal/scraper"
	"github.com/pauljones0/dealboard/internal/sitemap"
	"github.com/pauljones0/dealboard/internal/storage"
	"github.com/pauljones0/dealboard/internal/validator"
)

const (
	leaderboardWarmSchedule = "@every 5m"
	leaderboardWarmLimit    = 100
)

func main() {
	config.LoadDotEnv()
	logCfg := config.Logging()
	logger.Setup(logger.Options{Level: logCfg.Level, Format: logCfg.Format})

	slog.Info("Starting dealboard server...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.ProjectID, cfg.ServiceAccountJSON)
	if err != nil {
		slog.Error("Critical error initializing Firestore client", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var respCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, "dealboard:")
		if err != nil {
			slog.Warn("Redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rc.Close()
			respCache = rc
		}
	}

	m := metrics.New()
	v := validator.New()

	var extractor extract.Extractor
	aiClient, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("Critical error initializing Gemini client", "error", err)
		os.Exit(1)
	}
	if aiClient != nil {
		extractor = aiClient
	}

	scraper.UseSelectors(scraper.LoadConfig())
	var dealNotifier processor.DealNotifier
	if cfg.DealsWebhookURL != "" {
		dealNotifier = notifier.New(cfg.DealsWebhookURL, cfg.SiteURL)
	}
	p := processor.New(store, dealNotifier, scraper.New(), v)

	builder := sitemap.New(store, cfg.SiteURL)
	builder.OnDegraded = m.SitemapDegraded

	boards := leaderboard.NewService(store, respCache, cfg.LeaderboardCacheTTL)
	tracker := leaderboard.NewTracker(boards, leaderboardWarmLimit)

	sched := jobs.NewScheduler(m)
	if err := sched.Add(cfg.StoreRecountSchedule, "recount-stores", 10*time.Minute, jobs.Recount(store)); err != nil {
		slog.Error("Critical error scheduling store recount", "error", err)
		os.Exit(1)
	}
	if err := sched.Add(leaderboardWarmSchedule, "warm-leaderboards", time.Minute, jobs.WarmLeaderboards(tracker)); err != nil {
		slog.Error("Critical error scheduling leaderboard warmer", "error", err)
		os.Exit(1)
	}
	sched.Start()
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := jobs.WarmLeaderboards(tracker)(warmCtx); err != nil {
			slog.Warn("Initial leaderboard warm-up failed", "error", err)
		}
	}()

	srv := httpserver.New(slog.Default(), m)
	srv.RegisterRoutes(httpserver.Deps{
		Deals:                store,
		Submitter:            p,
		Extractor:            extractor,
		Validator:            v,
		Sitemap:              builder,
		Leaderboard:          boards,
		Snapshots:            tracker,
		Marketplace:          marketplace.New(nil, cfg.MarketplaceBaseURL, cfg.MarketplaceAPIKey),
		Cache:                respCache,
		Firebase:             cfg.Firebase,
		SitemapCacheTTL:      cfg.SitemapCacheTTL,
		LeaderboardMaxAge:    2 * cfg.LeaderboardCacheTTL,
		MaxExtractImageBytes: cfg.MaxExtractImageBytes,
		Timeout:              cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		sched.Stop(shutdownCtx)
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("Server stopped.")
}
