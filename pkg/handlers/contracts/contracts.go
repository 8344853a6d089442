package contracts

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

// Service is the contract orchestration used by ContractsHandler.
type Service interface {
	ListContracts(ctx context.Context, owner, name string) ([]models.Contract, error)
	AddContract(ctx context.Context, owner, name, username string, hourlyRate decimal.Decimal, role models.Role) (*models.Contract, error)
	RestoreContract(ctx context.Context, owner, name, username string, role models.Role) error
	FindContract(ctx context.Context, owner, name, username string, role models.Role) (*models.Contract, models.WalletType, error)
}

// ContractsHandler holds the dependencies for contract-related handlers.
type ContractsHandler struct {
	Contracts Service
	Logger    *slog.Logger
}

// NewContractsHandler creates a new ContractsHandler.
func NewContractsHandler(contracts Service, logger *slog.Logger) *ContractsHandler {
	return &ContractsHandler{Contracts: contracts, Logger: logger}
}

// ListContracts handles the logic for retrieving the contracts of a project.
func (h *ContractsHandler) ListContracts(w http.ResponseWriter, r *http.Request, owner string, name string) {
	domainContracts, err := h.Contracts.ListContracts(r.Context(), owner, name)
	if err != nil {
		h.Logger.Error("failed to list contracts", slog.Any("error", err))
		http.Error(w, "Failed to retrieve contracts", http.StatusInternalServerError)
		return
	}

	apiContracts := make([]*api.Contract, len(domainContracts))
	for i := range domainContracts {
		apiContracts[i] = mapping.ToApiContract(&domainContracts[i], "")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiContracts); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// AddContract handles the logic for creating a new contract.
func (h *ContractsHandler) AddContract(w http.ResponseWriter, r *http.Request, owner string, name string) {
	var newContract api.NewContract
	if err := json.NewDecoder(r.Body).Decode(&newContract); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	role := models.Role(strings.ToUpper(newContract.Role))
	created, err := h.Contracts.AddContract(r.Context(), owner, name, newContract.Username, newContract.HourlyRate, role)
	if err != nil {
		if errors.Is(err, billing.ErrContractCreationFailed) {
			h.Logger.Warn("contract rejected", slog.String("repo", owner+"/"+name), slog.Any("error", err))
			http.Error(w, "Contract could not be created", http.StatusPreconditionFailed)
		} else {
			h.Logger.Error("failed to add contract", slog.Any("error", err))
			http.Error(w, "Failed to add contract", http.StatusInternalServerError)
		}
		return
	}

	apiContract := mapping.ToApiContract(created, "")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(apiContract); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetContract handles the logic for retrieving a single contract.
func (h *ContractsHandler) GetContract(w http.ResponseWriter, r *http.Request, owner string, name string, username string, params api.ContractParams) {
	contract, walletType, err := h.Contracts.FindContract(r.Context(), owner, name, username, models.Role(strings.ToUpper(params.Role)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
		} else {
			h.Logger.Error("failed to get contract", slog.Any("error", err))
			http.Error(w, "Failed to retrieve contract", http.StatusInternalServerError)
		}
		return
	}

	apiContract := mapping.ToApiContract(contract, walletType)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiContract); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// RestoreContract handles the logic for clearing a contract's removal mark.
func (h *ContractsHandler) RestoreContract(w http.ResponseWriter, r *http.Request, owner string, name string, username string, params api.ContractParams) {
	if err := h.Contracts.RestoreContract(r.Context(), owner, name, username, models.Role(strings.ToUpper(params.Role))); err != nil {
		h.Logger.Error("failed to restore contract", slog.Any("error", err))
		http.Error(w, "Failed to restore contract", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
