package storage

import (
	"context"
	"time"

	"github.com/chris/project-billing/pkg/models"
)

// InvoiceReader defines the interface for reading invoices.
type InvoiceReader interface {
	// GetInvoice returns an invoice of a contract by its number, or ErrNotFound.
	GetInvoice(ctx context.Context, contract models.ContractID, invoiceID int) (*models.Invoice, error)

	// ListInvoices returns the invoices of a contract ordered by ID.
	ListInvoices(ctx context.Context, contract models.ContractID) ([]models.Invoice, error)

	// ActiveInvoice returns the newest unpaid invoice of a contract,
	// opening a new one when every existing invoice is paid.
	ActiveInvoice(ctx context.Context, contract models.ContractID) (*models.Invoice, error)
}

// PaymentLocker defines the per-invoice mutual exclusion used while a payment is dispatched.
type PaymentLocker interface {
	// LockInvoice claims the invoice under token. It returns ErrNotFound, ErrInvoiceAlreadyPaid
	// or ErrPaymentInProgress when the claim cannot be granted.
	LockInvoice(ctx context.Context, contract models.ContractID, invoiceID int, token string) error

	// UnlockInvoice releases a claim. It returns ErrLockLost if token no longer holds it.
	UnlockInvoice(ctx context.Context, contract models.ContractID, invoiceID int, token string) error

	// GetStaleLocks returns the claims held for longer than maxAge.
	GetStaleLocks(ctx context.Context, maxAge time.Duration) ([]models.InvoiceLock, error)
}

// PaymentRegistrar defines the privileged write that records a payment outcome.
// It should only be exposed to the component that dispatches payments.
type PaymentRegistrar interface {
	// RegisterPayment atomically stores payment as the invoice's latest attempt and releases
	// the claim held under token. A successful payment also marks the invoice paid and adds
	// its total to the wallet's debt. It returns ErrLockLost if token no longer holds the claim.
	RegisterPayment(ctx context.Context, contract models.ContractID, invoiceID int, token string, wallet models.Wallet, payment models.Payment) (*models.Invoice, error)
}

// InvoiceStore combines the invoice interfaces.
type InvoiceStore interface {
	InvoiceReader
	PaymentLocker
	PaymentRegistrar
}
