package memory

import (
	"context"
	"testing"
	"time"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProject  = models.Project{RepoFullName: "john/test", Provider: "github", Owner: "john"}
	testContract = models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: "github", Role: models.RoleDeveloper}
)

func TestStore_Contracts(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateContract(ctx, &models.Contract{ID: testContract, HourlyRate: 1633})
	require.NoError(t, err)

	_, err = s.CreateContract(ctx, &models.Contract{ID: testContract})
	assert.ErrorIs(t, err, storage.ErrContractAlreadyExists)

	require.NoError(t, s.MarkForRemoval(testContract, time.Now()))
	got, err := s.GetContract(ctx, testContract)
	require.NoError(t, err)
	assert.True(t, got.IsMarkedForRemoval())

	restored, err := s.RestoreContract(ctx, testContract)
	require.NoError(t, err)
	assert.False(t, restored.IsMarkedForRemoval())

	contracts, err := s.ListContracts(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, models.Money(1633), contracts[0].HourlyRate)

	_, err = s.GetContract(ctx, models.ContractID{RepoFullName: "john/test", ContributorUsername: "nobody", Provider: "github", Role: models.RoleQA})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ActiveInvoiceOpensNext(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.ActiveInvoice(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)

	s.AddInvoice(models.Invoice{ID: 1, Contract: testContract, IsPaid: true})
	next, err := s.ActiveInvoice(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, 2, next.ID)

	again, err := s.ActiveInvoice(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, 2, again.ID)
}

func TestStore_LockInvoice(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddInvoice(models.Invoice{ID: 1, Contract: testContract, TotalAmount: 500})
	s.AddInvoice(models.Invoice{ID: 2, Contract: testContract, IsPaid: true})

	require.NoError(t, s.LockInvoice(ctx, testContract, 1, "a"))
	assert.ErrorIs(t, s.LockInvoice(ctx, testContract, 1, "b"), storage.ErrPaymentInProgress)
	assert.ErrorIs(t, s.LockInvoice(ctx, testContract, 2, "b"), storage.ErrInvoiceAlreadyPaid)
	assert.ErrorIs(t, s.LockInvoice(ctx, testContract, 3, "b"), storage.ErrNotFound)

	assert.ErrorIs(t, s.UnlockInvoice(ctx, testContract, 1, "b"), storage.ErrLockLost)
	require.NoError(t, s.UnlockInvoice(ctx, testContract, 1, "a"))
	require.NoError(t, s.LockInvoice(ctx, testContract, 1, "b"))
}

func TestStore_GetStaleLocks(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }
	s.AddInvoice(models.Invoice{ID: 1, Contract: testContract})
	require.NoError(t, s.LockInvoice(ctx, testContract, 1, "token"))

	locks, err := s.GetStaleLocks(ctx, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, locks)

	now = now.Add(2 * time.Minute)
	locks, err = s.GetStaleLocks(ctx, time.Minute)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, "token", locks[0].Token)
	assert.Equal(t, testContract, locks[0].Contract)
}

func TestStore_RegisterPayment(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddInvoice(models.Invoice{ID: 1, Contract: testContract, TotalAmount: 500})
	wallet, err := s.CreateWallet(ctx, &models.Wallet{ProjectKey: testProject.Key(), Type: models.FakeWallet, Cash: 10000})
	require.NoError(t, err)

	t.Run("failed payment keeps the invoice open", func(t *testing.T) {
		require.NoError(t, s.LockInvoice(ctx, testContract, 1, "a"))
		inv, err := s.RegisterPayment(ctx, testContract, 1, "a", *wallet, models.Payment{Status: models.PaymentFailed, FailReason: "no cash"})
		require.NoError(t, err)
		assert.False(t, inv.IsPaid)
		assert.Equal(t, models.PaymentFailed, inv.Latest.Status)
	})

	t.Run("lost lock is rejected", func(t *testing.T) {
		_, err := s.RegisterPayment(ctx, testContract, 1, "a", *wallet, models.Payment{Status: models.PaymentSuccessful})
		assert.ErrorIs(t, err, storage.ErrLockLost)
	})

	t.Run("successful payment marks paid and adds debt", func(t *testing.T) {
		require.NoError(t, s.LockInvoice(ctx, testContract, 1, "b"))
		inv, err := s.RegisterPayment(ctx, testContract, 1, "b", *wallet, models.Payment{Status: models.PaymentSuccessful, TransactionID: "tx"})
		require.NoError(t, err)
		assert.True(t, inv.IsPaid)

		wallets, err := s.ListWallets(ctx, testProject)
		require.NoError(t, err)
		assert.Equal(t, models.Money(500), wallets[0].Debt)
		assert.ErrorIs(t, s.LockInvoice(ctx, testContract, 1, "c"), storage.ErrInvoiceAlreadyPaid)
	})
}

func TestStore_Wallets(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateWallet(ctx, &models.Wallet{ProjectKey: testProject.Key(), Type: models.FakeWallet, Active: true})
	require.NoError(t, err)
	_, err = s.CreateWallet(ctx, &models.Wallet{ProjectKey: testProject.Key(), Type: models.StripeWallet})
	require.NoError(t, err)
	_, err = s.CreateWallet(ctx, &models.Wallet{ProjectKey: testProject.Key(), Type: models.StripeWallet})
	assert.ErrorIs(t, err, storage.ErrWalletAlreadyExists)

	_, err = s.ActiveWallet(ctx, testProject)
	assert.ErrorIs(t, err, storage.ErrNotFound, "new wallets start inactive")

	_, err = s.ActivateWallet(ctx, testProject, models.FakeWallet)
	require.NoError(t, err)
	activated, err := s.ActivateWallet(ctx, testProject, models.StripeWallet)
	require.NoError(t, err)
	assert.True(t, activated.Active)

	wallets, err := s.ListWallets(ctx, testProject)
	require.NoError(t, err)
	active := 0
	for _, w := range wallets {
		if w.Active {
			active++
			assert.Equal(t, models.StripeWallet, w.Type)
		}
	}
	assert.Equal(t, 1, active)

	updated, err := s.UpdateCash(ctx, testProject, models.StripeWallet, 1050)
	require.NoError(t, err)
	assert.Equal(t, models.Money(1050), updated.Cash)

	_, err = s.UpdateCash(ctx, models.Project{RepoFullName: "x/y", Provider: "github"}, models.StripeWallet, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_AppendPaymentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	record := models.PaymentRecord{EntryID: "evt-1", Contract: testContract, InvoiceID: 1, Payment: models.Payment{TransactionID: "tx"}}

	require.NoError(t, s.AppendPayment(ctx, record))
	require.NoError(t, s.AppendPayment(ctx, record))

	records, err := s.ListPayments(ctx, testContract, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_RegisterProject(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetProject(ctx, "john/test", "github")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.RegisterProject(ctx, testProject))
	got, err := s.GetProject(ctx, "john/test", "github")
	require.NoError(t, err)
	assert.Equal(t, testProject, *got)
}
