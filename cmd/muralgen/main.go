// Package main is the entry point for the muralgen server.
// It loads configuration, opens the embedded store, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"muralgen/internal/ai"
	"muralgen/internal/auth"
	"muralgen/internal/cache"
	"muralgen/internal/config"
	"muralgen/internal/gallery"
	"muralgen/internal/handlers"
	"muralgen/internal/history"
	"muralgen/internal/kv"
	"muralgen/internal/router"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"db", cfg.DBPath(),
	)

	// Open the embedded store. One long-lived handle for the whole
	// process; every read-modify-write cycle runs through its critical
	// section.
	db, err := kv.Open(cfg.DBPath())
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Valkey if configured. The history cache is an optional
	// collaborator; without it every prompt query re-renders.
	var histCache *cache.HistoryCache
	if cfg.ValkeyAddr() != "" {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		histCache = cache.NewHistoryCache(valkeyClient, cache.DefaultHistoryTTL)
	} else {
		slog.Warn("valkey not configured — history caching disabled")
	}

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	// Wire the stores and the aggregation pipeline.
	authStore := auth.NewStore(db)
	galleryStore := gallery.NewDocumentStore(db)
	summarizer := history.NewSummarizer(aiRegistry, cfg.SummarizeTimeout)
	aggregator := history.NewAggregator(summarizer, slog.Default())

	api := handlers.NewAPI(authStore, galleryStore, aggregator, histCache)

	// Set up the Chi router with all middleware and routes.
	r := router.New(api)

	// WriteTimeout must accommodate the summarization call, which waits
	// on an LLM response.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.SummarizeTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
