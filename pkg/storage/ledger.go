package storage

import (
	"context"

	"github.com/chris/project-billing/pkg/models"
)

// LedgerReader defines the interface for reading the payment history.
type LedgerReader interface {
	// ListPayments returns the recorded attempts of an invoice, oldest first.
	ListPayments(ctx context.Context, contract models.ContractID, invoiceID int) ([]models.PaymentRecord, error)
}

// LedgerWriter appends to the payment history. Appends are idempotent on EntryID.
type LedgerWriter interface {
	AppendPayment(ctx context.Context, record models.PaymentRecord) error
}
