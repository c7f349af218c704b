package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/resumetailor/internal/ai"
	"github.com/dgallion1/resumetailor/internal/api"
	"github.com/dgallion1/resumetailor/internal/config"
	"github.com/dgallion1/resumetailor/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	classifier, err := cfg.Classifier()
	if err != nil {
		log.Error("invalid classifier configuration", "path", cfg.ClassifierConfig, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	client := ai.NewClient(cfg.AI(), log)
	proxy := ai.NewProxy(cfg.AI())

	// Initialize pipeline.
	svc := pipeline.NewService(cfg, classifier, log)
	svc.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(svc, client, proxy, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		svc.Stop()
		client.Close()
		proxy.Close()
	}()

	log.Info("starting resumetailor",
		"port", cfg.Port,
		"auth", cfg.TailorAPIKey != "",
		"doc_ttl", cfg.DocTTL.String(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
