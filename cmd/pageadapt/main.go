package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/browseable/pageadapt/internal/adapt"
	"github.com/browseable/pageadapt/internal/api"
	"github.com/browseable/pageadapt/internal/config"
	"github.com/browseable/pageadapt/internal/dom"
	"github.com/browseable/pageadapt/internal/pipeline"
	"github.com/browseable/pageadapt/internal/prefs"
	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A missing .env file is fine, the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Neurotype policies: built-ins plus an optional overlay file.
	policies := adapt.BuiltinPolicies()
	if cfg.PolicyFile != "" {
		policies, err = adapt.LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			log.Error("failed to load policy file", "path", cfg.PolicyFile, "error", err)
			os.Exit(1)
		}
	}

	// Initialize clients.
	pc := prefs.NewClient(cfg.PrefsURL, cfg.PrefsAPIKey)
	stats := adapt.NewStats(cfg.StatsWindow)
	model := adapt.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEndpoint, stats)
	fetcher := dom.NewHTTPFetcher(cfg.ImageFetchTimeout, cfg.MaxInlineImageBytes)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, model, pc, fetcher, policies, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		model.Close()
		pc.Close()
		fetcher.Close()
	}()

	log.Info("starting pageadapt", "port", cfg.Port, "model", cfg.GeminiModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
