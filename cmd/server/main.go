package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	webAdapter "bet-books/internal/adapters/web"
	"bet-books/internal/app"
	"bet-books/internal/config"
	"bet-books/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logr := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeStorage, err := app.Open(ctx, cfg, logger.WithComponent("books"))
	if err != nil {
		logr.Fatal().Err(err).Msg("Storage unavailable")
	}
	defer closeStorage()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           webAdapter.NewHandler(svc, cfg.AllowedOrigins, logger.WithComponent("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	logr.Info().Str("port", cfg.ServerPort).Str("storage", cfg.StorageBackend).Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal().Err(err).Msg("Server failed")
	}
	logr.Info().Msg("Server stopped")
}
