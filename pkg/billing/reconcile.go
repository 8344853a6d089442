package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/project-billing/pkg/storage"
)

// LockReconciler frees invoice claims abandoned by crashed payments.
type LockReconciler struct {
	Store  storage.PaymentLocker
	Logger *slog.Logger
}

// NewLockReconciler creates a LockReconciler.
func NewLockReconciler(store storage.PaymentLocker, logger *slog.Logger) *LockReconciler {
	return &LockReconciler{Store: store, Logger: logger}
}

// ReleaseStaleLocks releases every claim older than maxAge and returns how many were released.
// Claims released concurrently by their holder are skipped.
func (r *LockReconciler) ReleaseStaleLocks(ctx context.Context, maxAge time.Duration) (int, error) {
	locks, err := r.Store.GetStaleLocks(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("failed to get stale invoice locks: %w", err)
	}

	released := 0
	var errs []error
	for _, lock := range locks {
		err := r.Store.UnlockInvoice(ctx, lock.Contract, lock.InvoiceID, lock.Token)
		switch {
		case err == nil:
			released++
			r.Logger.Warn("released stale invoice lock",
				slog.String("contract_id", lock.Contract.String()),
				slog.Int("invoice_id", lock.InvoiceID),
				slog.Time("locked_at", lock.LockedAt),
			)
		case errors.Is(err, storage.ErrLockLost), errors.Is(err, storage.ErrNotFound):
			// finished by its holder
		default:
			errs = append(errs, fmt.Errorf("invoice #%d of %s: %w", lock.InvoiceID, lock.Contract, err))
		}
	}
	return released, errors.Join(errs...)
}
