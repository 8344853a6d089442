package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chris/project-billing/pkg/bootstrap"
	"github.com/chris/project-billing/pkg/config"
	"github.com/chris/project-billing/pkg/logging"
	"github.com/chris/project-billing/pkg/server"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise backends", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Error("failed to close backends", "error", err)
		}
	}()

	srv := server.New(logger, cfg.HTTP, newRouter(cfg.Billing, backends, logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server stopped", "error", err)
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
