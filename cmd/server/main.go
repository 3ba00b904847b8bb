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

	"github.com/dgallion1/themeindex/internal/analytics"
	"github.com/dgallion1/themeindex/internal/api"
	"github.com/dgallion1/themeindex/internal/blobstore"
	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/config"
	"github.com/dgallion1/themeindex/internal/pipeline"
	"github.com/dgallion1/themeindex/internal/summary"
)

func main() {
	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog: Postgres when configured, otherwise in memory.
	var store catalog.Store
	if cfg.DatabaseURL != "" {
		if cfg.RunMigrations {
			if err := catalog.Migrate(cfg.DatabaseURL, log); err != nil {
				log.Error("migrations failed", "error", err)
				os.Exit(1)
			}
		}
		pool, err := catalog.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = catalog.NewPostgresStore(pool)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory catalog")
		store = catalog.NewMemoryStore()
	}

	// Search analytics.
	var rec analytics.Recorder = analytics.NewMemory(analytics.DefaultRecent)
	if cfg.RedisURL != "" {
		rdb, err := analytics.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		rec = analytics.NewRedis(rdb, analytics.DefaultRecent)
	}

	// Source documents.
	var blobs pipeline.BlobStore
	if cfg.BlobBaseURL != "" {
		bc := blobstore.NewClient(cfg.BlobBaseURL, cfg.BlobAPIKey)
		defer bc.Close()
		blobs = bc
	}

	// Summaries and quizzes.
	var ai *summary.Service
	if cfg.AnthropicAPIKey != "" {
		llm := summary.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		defer llm.Close()
		ai = summary.NewService(llm, nil)
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, summary and quiz endpoints disabled")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, store, blobs, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Catalog:      store,
		Analytics:    rec,
		Summary:      ai,
		Blobs:        blobs,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
		orch.Stop()
	}()

	log.Info("starting themeindex", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
