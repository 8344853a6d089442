package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/project-billing/pkg/models"
	"github.com/google/uuid"
)

// Fake settles payments against the wallet's cash without moving real money.
type Fake struct {
	Now func() time.Time
}

// NewFake creates a Fake gateway using the wall clock.
func NewFake() *Fake {
	return &Fake{Now: func() time.Time { return time.Now().UTC() }}
}

// Make sure we conform to the interface
var _ Gateway = (*Fake)(nil)

// Pay succeeds when the wallet's available cash covers the invoice total.
func (f *Fake) Pay(_ context.Context, wallet models.Wallet, invoice models.Invoice) (*models.Payment, error) {
	payment := &models.Payment{
		TransactionID: "fake_payment_" + uuid.NewString(),
		Status:        models.PaymentSuccessful,
		PaymentTime:   f.Now(),
		Amount:        invoice.TotalAmount,
		WalletType:    wallet.Type,
	}
	if available := wallet.Available(); invoice.TotalAmount > available {
		payment.Status = models.PaymentFailed
		payment.FailReason = fmt.Sprintf("not enough cash in wallet: available %s, required %s", available, invoice.TotalAmount)
	}
	return payment, nil
}
