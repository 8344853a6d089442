package billing

import (
	"errors"
	"fmt"

	"github.com/chris/project-billing/pkg/storage"
)

// The not-found errors wrap storage.ErrNotFound so callers can test for absence generically.
var (
	ErrProjectNotFound  = fmt.Errorf("project %w", storage.ErrNotFound)
	ErrContractNotFound = fmt.Errorf("contract %w", storage.ErrNotFound)
	ErrInvoiceNotFound  = fmt.Errorf("invoice %w", storage.ErrNotFound)
	ErrWalletNotFound   = fmt.Errorf("wallet %w", storage.ErrNotFound)
)

// ErrContractCreationFailed is returned when a contract cannot be added.
var ErrContractCreationFailed = errors.New("contract could not be created")

// ErrUnsupportedWalletType is returned for wallet types that cannot be created or funded manually.
var ErrUnsupportedWalletType = errors.New("unsupported wallet type")

// ErrInvalidAmount is returned for negative money amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidRole is returned for unknown contract roles.
var ErrInvalidRole = errors.New("invalid role")

// ErrPaymentNotRegistered is returned when a charge went out but its outcome could not be stored.
// It never wraps storage.ErrNotFound.
var ErrPaymentNotRegistered = errors.New("payment dispatched but not registered")
