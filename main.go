package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/ingestion"
	"github.com/terskinalex/leetcode-activity-tracker/internal/leetcode"
	"github.com/terskinalex/leetcode-activity-tracker/internal/server"
	"github.com/terskinalex/leetcode-activity-tracker/internal/storage"
)

func main() {
	// A missing .env is fine; configuration falls back to the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer store.Close()

	client := leetcode.NewClient(cfg.Ingestion)
	ingestor := ingestion.NewService(cfg.Ingestion, client, store)
	httpServer := server.NewServer(cfg.Server, store, ingestor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := httpServer.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		if err := ingestor.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("ingestion service error", "error", err)
		}
	}()

	<-sigChan
	slog.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	cancel()
	slog.Info("shutdown complete")
}
