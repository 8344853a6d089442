package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/gateway"
	"github.com/chris/project-billing/pkg/handlers/contracts"
	"github.com/chris/project-billing/pkg/handlers/invoices"
	"github.com/chris/project-billing/pkg/handlers/wallets"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	store.AddProject(models.Project{RepoFullName: "john/test", Provider: "github", Owner: "john"})

	contractOrchestrator := billing.NewContractOrchestrator(store, "github", logger)
	paymentOrchestrator := billing.NewPaymentOrchestrator(store, gateway.NewRouter().Register(models.FakeWallet, gateway.NewFake()), nil, "github", logger)
	walletOrchestrator := billing.NewWalletOrchestrator(store, "github", logger)

	h := NewApiHandler(
		contracts.NewContractsHandler(contractOrchestrator, logger),
		invoices.NewInvoicesHandler(contractOrchestrator, paymentOrchestrator, logger),
		wallets.NewWalletsHandler(walletOrchestrator, logger),
	)
	return api.HandlerFromMux(h, chi.NewRouter()), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBillingFlow(t *testing.T) {
	h, store := newTestServer(t)
	const base = "/api/repos/john/test"

	// Add a contract.
	rr := do(t, h, http.MethodPost, base+"/contracts", `{"username":"mihai","hourlyRate":16.33,"role":"DEV"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var contract api.Contract
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &contract))
	assert.Equal(t, "16,33 €", contract.HourlyRate)
	assert.Equal(t, "null", contract.MarkedForRemoval)

	// Fund the project with a FAKE wallet.
	rr = do(t, h, http.MethodPost, base+"/wallets", `{"type":"FAKE","billingInfo":{"email":"john@example.com"}}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = do(t, h, http.MethodPut, base+"/wallets/FAKE/active", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, base+"/contracts/mihai?role=DEV", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"projectWalletType":"FAKE"`)

	// Pay the first invoice.
	devID := models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: "github", Role: models.RoleDeveloper}
	store.AddInvoice(models.Invoice{ID: 1, Contract: devID, Amount: 1633, TotalAmount: 1800})

	rr = do(t, h, http.MethodPut, base+"/contracts/mihai/invoices/1/pay?role=DEV", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var result api.PaymentResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Paid)
	require.NotNil(t, result.Payment)
	assert.Equal(t, "SUCCESSFUL", result.Payment.Status)
	assert.Equal(t, 2, result.Active.Id)

	// Paying again reports the invoice as paid without a new attempt.
	rr = do(t, h, http.MethodPut, base+"/contracts/mihai/invoices/1/pay?role=DEV", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `"payment"`)

	rr = do(t, h, http.MethodGet, base+"/wallets", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var ws []api.Wallet
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ws))
	require.Len(t, ws, 1)
	assert.Equal(t, "18.00", ws[0].Debt.String())

	rr = do(t, h, http.MethodGet, base+"/contracts/mihai/invoices?role=DEV", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var invs []api.Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &invs))
	assert.Len(t, invs, 2)
}

func TestStatusMapping(t *testing.T) {
	h, store := newTestServer(t)
	const base = "/api/repos/john/test"
	rr := do(t, h, http.MethodPost, base+"/contracts", `{"username":"mihai","hourlyRate":"10","role":"DEV"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	devID := models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: "github", Role: models.RoleDeveloper}
	store.AddInvoice(models.Invoice{ID: 1, Contract: devID, TotalAmount: 100})

	testCases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{name: "health", method: http.MethodGet, target: "/healthz", status: http.StatusOK},
		{name: "add contract on missing project", method: http.MethodPost, target: "/api/repos/nobody/none/contracts", body: `{"username":"a","hourlyRate":1,"role":"DEV"}`, status: http.StatusPreconditionFailed},
		{name: "duplicate contract", method: http.MethodPost, target: base + "/contracts", body: `{"username":"mihai","hourlyRate":1,"role":"DEV"}`, status: http.StatusPreconditionFailed},
		{name: "malformed contract body", method: http.MethodPost, target: base + "/contracts", body: `{`, status: http.StatusBadRequest},
		{name: "list contracts of missing project", method: http.MethodGet, target: "/api/repos/nobody/none/contracts", status: http.StatusOK},
		{name: "find missing contract", method: http.MethodGet, target: base + "/contracts/vlad?role=DEV", status: http.StatusNoContent},
		{name: "restore missing contract", method: http.MethodPut, target: base + "/contracts/vlad/restore?role=DEV", status: http.StatusNoContent},
		{name: "restore existing contract", method: http.MethodPut, target: base + "/contracts/mihai/restore?role=DEV", status: http.StatusNoContent},
		{name: "pay missing invoice", method: http.MethodPut, target: base + "/contracts/mihai/invoices/7/pay?role=DEV", status: http.StatusNoContent},
		{name: "pay without active wallet", method: http.MethodPut, target: base + "/contracts/mihai/invoices/1/pay?role=DEV", status: http.StatusNoContent},
		{name: "payments of missing contract", method: http.MethodGet, target: base + "/contracts/vlad/invoices/1/payments?role=DEV", status: http.StatusOK},
		{name: "list wallets of missing project", method: http.MethodGet, target: "/api/repos/nobody/none/wallets", status: http.StatusOK},
		{name: "create wallet on missing project", method: http.MethodPost, target: "/api/repos/nobody/none/wallets", body: `{"type":"STRIPE"}`, status: http.StatusBadRequest},
		{name: "create unknown wallet type", method: http.MethodPost, target: base + "/wallets", body: `{"type":"PAYPAL"}`, status: http.StatusBadRequest},
		{name: "activate missing wallet", method: http.MethodPut, target: base + "/wallets/STRIPE/active", status: http.StatusBadRequest},
		{name: "update FAKE cash", method: http.MethodPut, target: base + "/wallets/FAKE/cash", body: `{"cash":10}`, status: http.StatusBadRequest},
		{name: "update missing wallet cash", method: http.MethodPut, target: base + "/wallets/STRIPE/cash", body: `{"cash":10}`, status: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}

func TestPayInvoice_Conflict(t *testing.T) {
	h, store := newTestServer(t)
	const base = "/api/repos/john/test"
	rr := do(t, h, http.MethodPost, base+"/contracts", `{"username":"mihai","hourlyRate":10,"role":"DEV"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	devID := models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: "github", Role: models.RoleDeveloper}
	store.AddInvoice(models.Invoice{ID: 1, Contract: devID, TotalAmount: 100})
	require.NoError(t, store.LockInvoice(context.Background(), devID, 1, "in-flight"))

	rr = do(t, h, http.MethodPut, base+"/contracts/mihai/invoices/1/pay?role=DEV", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}
