package wallets_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/handlers/wallets"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	wallet     *models.Wallet
	err        error
	walletType models.WalletType
	cash       decimal.Decimal
	billing    models.BillingInfo
}

func (s *stubService) ListWallets(context.Context, string, string) ([]models.Wallet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Wallet{*s.wallet}, nil
}

func (s *stubService) CreateWallet(_ context.Context, _, _ string, walletType models.WalletType, info models.BillingInfo) (*models.Wallet, error) {
	s.walletType, s.billing = walletType, info
	return s.wallet, s.err
}

func (s *stubService) Activate(_ context.Context, _, _ string, walletType models.WalletType) (*models.Wallet, error) {
	s.walletType = walletType
	return s.wallet, s.err
}

func (s *stubService) UpdateCash(_ context.Context, _, _ string, walletType models.WalletType, cash decimal.Decimal) (*models.Wallet, error) {
	s.walletType, s.cash = walletType, cash
	return s.wallet, s.err
}

var stripeWallet = &models.Wallet{Type: models.StripeWallet, Active: true, Cash: 1050, Debt: 50}

func newHandler(s *stubService) *wallets.WalletsHandler {
	return wallets.NewWalletsHandler(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := &stubService{wallet: stripeWallet}
		h := newHandler(s)
		req := httptest.NewRequest(http.MethodPost, "/wallets", strings.NewReader(`{"type":"stripe","billingInfo":{"email":"john@example.com","isCompany":true}}`))
		rr := httptest.NewRecorder()

		h.CreateWallet(rr, req, "john", "test")

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, models.StripeWallet, s.walletType)
		assert.Equal(t, "john@example.com", s.billing.Email)
		assert.True(t, s.billing.IsCompany)
	})

	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "Duplicate", err: storage.ErrWalletAlreadyExists, status: http.StatusBadRequest},
		{name: "Missing project", err: billing.ErrProjectNotFound, status: http.StatusBadRequest},
		{name: "Unsupported type", err: billing.ErrUnsupportedWalletType, status: http.StatusBadRequest},
		{name: "Store fault", err: errors.New("db down"), status: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(&stubService{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/wallets", strings.NewReader(`{"type":"STRIPE"}`))
			rr := httptest.NewRecorder()

			h.CreateWallet(rr, req, "john", "test")

			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestUpdateWalletCash(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := &stubService{wallet: stripeWallet}
		h := newHandler(s)
		req := httptest.NewRequest(http.MethodPut, "/wallets/STRIPE/cash", strings.NewReader(`{"cash":10.504}`))
		rr := httptest.NewRecorder()

		h.UpdateWalletCash(rr, req, "john", "test", "STRIPE")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "10.504", s.cash.String())
		var body api.Wallet
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "10.50", body.Cash.String())
		assert.Equal(t, "10.00", body.Available.String())
	})

	t.Run("Invalid body", func(t *testing.T) {
		h := newHandler(&stubService{wallet: stripeWallet})
		req := httptest.NewRequest(http.MethodPut, "/wallets/STRIPE/cash", strings.NewReader(`{"cash":"ten"}`))
		rr := httptest.NewRecorder()

		h.UpdateWalletCash(rr, req, "john", "test", "STRIPE")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Invalid amount", func(t *testing.T) {
		h := newHandler(&stubService{err: billing.ErrInvalidAmount})
		req := httptest.NewRequest(http.MethodPut, "/wallets/STRIPE/cash", strings.NewReader(`{"cash":-1}`))
		rr := httptest.NewRecorder()

		h.UpdateWalletCash(rr, req, "john", "test", "STRIPE")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestActivateWallet(t *testing.T) {
	s := &stubService{wallet: stripeWallet}
	h := newHandler(s)
	rr := httptest.NewRecorder()

	h.ActivateWallet(rr, httptest.NewRequest(http.MethodPut, "/wallets/stripe/active", nil), "john", "test", "stripe")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.StripeWallet, s.walletType)
	assert.Contains(t, rr.Body.String(), `"active":true`)
}

func TestListWallets(t *testing.T) {
	h := newHandler(&stubService{err: errors.New("db down")})
	rr := httptest.NewRecorder()

	h.ListWallets(rr, httptest.NewRequest(http.MethodGet, "/wallets", nil), "john", "test")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
