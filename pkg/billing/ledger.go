package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/project-billing/pkg/events"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// PaymentLedger appends published payment events to the payment history.
type PaymentLedger struct {
	Store  storage.LedgerWriter
	Logger *slog.Logger
}

// A PaymentLedger doubles as an in-process publisher when no queue sits between the
// payment flow and the history.
var _ events.Publisher = (*PaymentLedger)(nil)

// NewPaymentLedger creates a PaymentLedger.
func NewPaymentLedger(store storage.LedgerWriter, logger *slog.Logger) *PaymentLedger {
	return &PaymentLedger{Store: store, Logger: logger}
}

// RecordPaymentEvent stores the event as a ledger entry. Redelivered events are ignored.
func (l *PaymentLedger) RecordPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	if event.ID == "" {
		return fmt.Errorf("payment event for invoice #%d has no ID", event.InvoiceID)
	}
	record := models.PaymentRecord{
		EntryID:    event.ID,
		Contract:   event.Contract,
		InvoiceID:  event.InvoiceID,
		Payment:    event.Payment,
		RecordedAt: time.Now().UTC(),
	}
	if err := l.Store.AppendPayment(ctx, record); err != nil {
		return fmt.Errorf("failed to record payment event %s: %w", event.ID, err)
	}
	l.Logger.Info("payment recorded",
		slog.String("event_id", event.ID),
		slog.String("contract_id", event.Contract.String()),
		slog.Int("invoice_id", event.InvoiceID),
		slog.String("status", string(event.Payment.Status)),
	)
	return nil
}

// Publish records the event directly.
func (l *PaymentLedger) Publish(ctx context.Context, event models.PaymentEvent) error {
	return l.RecordPaymentEvent(ctx, event)
}
