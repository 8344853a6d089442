package wallets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chris/project-billing/pkg/api"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/mapping"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/shopspring/decimal"
)

// Service is the wallet orchestration used by WalletsHandler.
type Service interface {
	ListWallets(ctx context.Context, owner, name string) ([]models.Wallet, error)
	CreateWallet(ctx context.Context, owner, name string, walletType models.WalletType, billingInfo models.BillingInfo) (*models.Wallet, error)
	Activate(ctx context.Context, owner, name string, walletType models.WalletType) (*models.Wallet, error)
	UpdateCash(ctx context.Context, owner, name string, walletType models.WalletType, cash decimal.Decimal) (*models.Wallet, error)
}

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Wallets Service
	Logger  *slog.Logger
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(wallets Service, logger *slog.Logger) *WalletsHandler {
	return &WalletsHandler{Wallets: wallets, Logger: logger}
}

// ListWallets handles the logic for retrieving the wallets of a project.
func (h *WalletsHandler) ListWallets(w http.ResponseWriter, r *http.Request, owner string, name string) {
	domainWallets, err := h.Wallets.ListWallets(r.Context(), owner, name)
	if err != nil {
		h.Logger.Error("failed to list wallets", slog.Any("error", err))
		http.Error(w, "Failed to retrieve wallets", http.StatusInternalServerError)
		return
	}

	apiWallets := make([]*api.Wallet, len(domainWallets))
	for i := range domainWallets {
		apiWallets[i] = mapping.ToApiWallet(&domainWallets[i])
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiWallets); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// CreateWallet handles the logic for creating a new wallet.
func (h *WalletsHandler) CreateWallet(w http.ResponseWriter, r *http.Request, owner string, name string) {
	var newWallet api.NewWallet
	if err := json.NewDecoder(r.Body).Decode(&newWallet); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	walletType := models.WalletType(strings.ToUpper(newWallet.Type))
	created, err := h.Wallets.CreateWallet(r.Context(), owner, name, walletType, mapping.ToDomainBillingInfo(&newWallet.BillingInfo))
	if err != nil {
		h.writeError(w, "create wallet", err)
		return
	}

	apiWallet := mapping.ToApiWallet(created)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(apiWallet); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ActivateWallet handles the logic for switching the project's active wallet.
func (h *WalletsHandler) ActivateWallet(w http.ResponseWriter, r *http.Request, owner string, name string, walletType string) {
	activated, err := h.Wallets.Activate(r.Context(), owner, name, models.WalletType(strings.ToUpper(walletType)))
	if err != nil {
		h.writeError(w, "activate wallet", err)
		return
	}

	apiWallet := mapping.ToApiWallet(activated)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiWallet); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// UpdateWalletCash handles the logic for changing a wallet's cash limit.
func (h *WalletsHandler) UpdateWalletCash(w http.ResponseWriter, r *http.Request, owner string, name string, walletType string) {
	var limit api.CashLimit
	if err := json.NewDecoder(r.Body).Decode(&limit); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	updated, err := h.Wallets.UpdateCash(r.Context(), owner, name, models.WalletType(strings.ToUpper(walletType)), limit.Cash)
	if err != nil {
		h.writeError(w, "update wallet cash", err)
		return
	}

	apiWallet := mapping.ToApiWallet(updated)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiWallet); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// writeError maps wallet failures: request problems are 400, anything else 500.
func (h *WalletsHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "Project or wallet not found", http.StatusBadRequest)
	case errors.Is(err, storage.ErrWalletAlreadyExists):
		http.Error(w, "Wallet already exists", http.StatusBadRequest)
	case errors.Is(err, billing.ErrUnsupportedWalletType):
		http.Error(w, "Unsupported wallet type", http.StatusBadRequest)
	case errors.Is(err, billing.ErrInvalidAmount):
		http.Error(w, "Invalid amount", http.StatusBadRequest)
	default:
		h.Logger.Error("failed to "+op, slog.Any("error", err))
		http.Error(w, "Failed to "+op, http.StatusInternalServerError)
	}
}
