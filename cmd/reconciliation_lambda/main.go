package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/bootstrap"
	"github.com/chris/project-billing/pkg/config"
	"github.com/chris/project-billing/pkg/logging"
	"github.com/joho/godotenv"
)

type lockReleaser interface {
	ReleaseStaleLocks(ctx context.Context, maxAge time.Duration) (int, error)
}

type handler struct {
	reconciler lockReleaser
	maxAge     time.Duration
	logger     *slog.Logger
}

// HandleRequest is triggered by an EventBridge Schedule.
func (h *handler) HandleRequest(ctx context.Context) error {
	h.logger.Info("starting reconciliation of stale invoice locks", "max_age", h.maxAge)

	released, err := h.reconciler.ReleaseStaleLocks(ctx, h.maxAge)
	if err != nil {
		// Some locks may have been released before the failure.
		h.logger.Error("reconciliation finished with errors", "released", released, "error", err)
		return err
	}

	h.logger.Info("reconciliation finished", "released", released)
	return nil
}

func main() {
	// Load environment variables for local testing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := logging.New(cfg.Logging)

	backends, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialise backends", "error", err)
		os.Exit(1)
	}

	h := &handler{
		reconciler: billing.NewLockReconciler(backends.Store, logger),
		maxAge:     cfg.Billing.StaleLockThreshold,
		logger:     logger,
	}
	lambda.Start(h.HandleRequest)
}
