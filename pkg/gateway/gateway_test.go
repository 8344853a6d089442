package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chris/project-billing/pkg/gateway/mocks"
	"github.com/chris/project-billing/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestFake_Pay(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := &Fake{Now: func() time.Time { return now }}
	wallet := models.Wallet{Type: models.FakeWallet, Cash: 10000, Debt: 9000}

	t.Run("covered invoice succeeds", func(t *testing.T) {
		p, err := f.Pay(context.Background(), wallet, models.Invoice{ID: 1, TotalAmount: 1000})
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentSuccessful, p.Status)
		assert.True(t, strings.HasPrefix(p.TransactionID, "fake_payment_"))
		assert.Equal(t, models.Money(1000), p.Amount)
		assert.Equal(t, now, p.PaymentTime)
		assert.Empty(t, p.FailReason)
	})

	t.Run("uncovered invoice fails", func(t *testing.T) {
		p, err := f.Pay(context.Background(), wallet, models.Invoice{ID: 1, TotalAmount: 1001})
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, p.Status)
		assert.Contains(t, p.FailReason, "available 10.00, required 10.01")
	})
}

func TestRouter_Pay(t *testing.T) {
	stripe := mocks.NewGateway(t)
	r := NewRouter().Register(models.StripeWallet, stripe)
	wallet := models.Wallet{Type: models.StripeWallet}
	invoice := models.Invoice{ID: 3}

	stripe.On("Pay", mock.Anything, wallet, invoice).Return(nil, errors.New("timeout")).Once()
	_, err := r.Pay(context.Background(), wallet, invoice)
	assert.EqualError(t, err, "timeout")

	_, err = r.Pay(context.Background(), models.Wallet{Type: models.FakeWallet}, invoice)
	assert.ErrorIs(t, err, ErrNoGateway)
}
