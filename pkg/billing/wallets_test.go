package billing

import (
	"context"
	"testing"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletOrchestrator_ListWallets(t *testing.T) {
	o := NewWalletOrchestrator(newStore(t), provider, discardLogger())
	wallets, err := o.ListWallets(context.Background(), "nobody", "nothing")
	require.NoError(t, err)
	assert.NotNil(t, wallets)
	assert.Empty(t, wallets)
}

func TestWalletOrchestrator_CreateWallet(t *testing.T) {
	ctx := context.Background()
	o := NewWalletOrchestrator(newStore(t), provider, discardLogger())
	info := models.BillingInfo{Email: "john@example.com"}

	fake, err := o.CreateWallet(ctx, "john", "test", models.FakeWallet, info)
	require.NoError(t, err)
	assert.False(t, fake.Active)
	assert.Equal(t, FakeWalletCash, fake.Cash)

	stripe, err := o.CreateWallet(ctx, "john", "test", models.StripeWallet, info)
	require.NoError(t, err)
	assert.Zero(t, stripe.Cash)
	assert.Equal(t, "john@example.com", stripe.BillingInfo.Email)

	_, err = o.CreateWallet(ctx, "john", "test", models.StripeWallet, info)
	assert.ErrorIs(t, err, storage.ErrWalletAlreadyExists)

	_, err = o.CreateWallet(ctx, "nobody", "test", models.StripeWallet, info)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = o.CreateWallet(ctx, "john", "test", "PAYPAL", info)
	assert.ErrorIs(t, err, ErrUnsupportedWalletType)
}

func TestWalletOrchestrator_Activate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	o := NewWalletOrchestrator(s, provider, discardLogger())

	_, err := o.Activate(ctx, "john", "test", models.StripeWallet)
	assert.ErrorIs(t, err, ErrWalletNotFound)
	_, err = o.Activate(ctx, "nobody", "test", models.StripeWallet)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = o.CreateWallet(ctx, "john", "test", models.FakeWallet, models.BillingInfo{})
	require.NoError(t, err)
	_, err = o.CreateWallet(ctx, "john", "test", models.StripeWallet, models.BillingInfo{})
	require.NoError(t, err)

	for _, walletType := range []models.WalletType{models.FakeWallet, models.StripeWallet, models.FakeWallet} {
		activated, err := o.Activate(ctx, "john", "test", walletType)
		require.NoError(t, err)
		assert.True(t, activated.Active)

		wallets, err := o.ListWallets(ctx, "john", "test")
		require.NoError(t, err)
		var active []models.WalletType
		for _, w := range wallets {
			if w.Active {
				active = append(active, w.Type)
			}
		}
		assert.Equal(t, []models.WalletType{walletType}, active)
	}
}

func TestWalletOrchestrator_UpdateCash(t *testing.T) {
	ctx := context.Background()

	t.Run("FAKE is rejected before any lookup", func(t *testing.T) {
		o := NewWalletOrchestrator(nil, provider, discardLogger())
		_, err := o.UpdateCash(ctx, "john", "test", models.FakeWallet, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, ErrUnsupportedWalletType)
	})

	t.Run("negative cash", func(t *testing.T) {
		o := NewWalletOrchestrator(nil, provider, discardLogger())
		_, err := o.UpdateCash(ctx, "john", "test", models.StripeWallet, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rounds to cents and recomputes available", func(t *testing.T) {
		s := newStore(t)
		o := NewWalletOrchestrator(s, provider, discardLogger())
		_, err := o.CreateWallet(ctx, "john", "test", models.StripeWallet, models.BillingInfo{})
		require.NoError(t, err)

		w, err := o.UpdateCash(ctx, "john", "test", models.StripeWallet, decimal.RequireFromString("10.504"))
		require.NoError(t, err)
		assert.Equal(t, models.Money(1050), w.Cash)
		assert.Equal(t, models.Money(1050), w.Available())
	})

	t.Run("missing project or wallet", func(t *testing.T) {
		o := NewWalletOrchestrator(newStore(t), provider, discardLogger())
		_, err := o.UpdateCash(ctx, "nobody", "test", models.StripeWallet, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrProjectNotFound)
		_, err = o.UpdateCash(ctx, "john", "test", models.StripeWallet, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})
}
