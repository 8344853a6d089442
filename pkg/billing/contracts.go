package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/shopspring/decimal"
)

// ContractsStore is the data access needed by ContractOrchestrator.
type ContractsStore interface {
	storage.ProjectReader
	storage.ContractStore
	storage.InvoiceReader
	storage.WalletReader
}

// ContractOrchestrator lists, adds and restores the contracts of a project.
type ContractOrchestrator struct {
	Store    ContractsStore
	Logger   *slog.Logger
	projects projectResolver
}

// NewContractOrchestrator creates a ContractOrchestrator resolving projects of provider.
func NewContractOrchestrator(store ContractsStore, provider string, logger *slog.Logger) *ContractOrchestrator {
	return &ContractOrchestrator{
		Store:    store,
		Logger:   logger,
		projects: projectResolver{projects: store, provider: provider},
	}
}

// ListContracts returns the contracts of a project. An unknown project has no contracts.
func (o *ContractOrchestrator) ListContracts(ctx context.Context, owner, name string) ([]models.Contract, error) {
	project, err := o.projects.resolve(ctx, owner, name)
	if errors.Is(err, ErrProjectNotFound) {
		return []models.Contract{}, nil
	}
	if err != nil {
		return nil, err
	}

	contracts, err := o.Store.ListContracts(ctx, *project)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts of %s: %w", project.RepoFullName, err)
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}
	return contracts, nil
}

// AddContract creates a contract for username in role, paid hourlyRate per hour.
// Every rejection is reported as ErrContractCreationFailed, wrapping the cause.
func (o *ContractOrchestrator) AddContract(ctx context.Context, owner, name, username string, hourlyRate decimal.Decimal, role models.Role) (*models.Contract, error) {
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: missing username", ErrContractCreationFailed)
	case !role.Valid():
		return nil, fmt.Errorf("%w: %w %q", ErrContractCreationFailed, ErrInvalidRole, role)
	case hourlyRate.IsNegative():
		return nil, fmt.Errorf("%w: %w: hourly rate %s", ErrContractCreationFailed, ErrInvalidAmount, hourlyRate)
	}

	project, err := o.projects.resolve(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContractCreationFailed, err)
	}

	contract := &models.Contract{
		ID:         contractID(*project, username, role),
		HourlyRate: models.MoneyFromDecimal(hourlyRate),
		CreatedAt:  time.Now().UTC(),
	}
	created, err := o.Store.CreateContract(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContractCreationFailed, err)
	}

	o.Logger.Info("contract created",
		slog.String("contract_id", created.ID.String()),
		slog.String("hourly_rate", created.HourlyRate.String()),
	)
	return created, nil
}

// RestoreContract clears the removal mark of a contract.
// A missing project or contract, or an unmarked contract, is a no-op.
func (o *ContractOrchestrator) RestoreContract(ctx context.Context, owner, name, username string, role models.Role) error {
	project, err := o.projects.resolve(ctx, owner, name)
	if errors.Is(err, ErrProjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	contract, err := o.Store.GetContract(ctx, contractID(*project, username, role))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get contract: %w", err)
	}
	if !contract.IsMarkedForRemoval() {
		return nil
	}

	if _, err := o.Store.RestoreContract(ctx, contract.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to restore contract %s: %w", contract.ID, err)
	}
	o.Logger.Info("contract restored", slog.String("contract_id", contract.ID.String()))
	return nil
}

// FindContract returns a contract together with the type of the project's active wallet,
// which is empty when no wallet is active.
func (o *ContractOrchestrator) FindContract(ctx context.Context, owner, name, username string, role models.Role) (*models.Contract, models.WalletType, error) {
	project, contract, err := o.lookup(ctx, owner, name, username, role)
	if err != nil {
		return nil, "", err
	}

	wallet, err := o.Store.ActiveWallet(ctx, *project)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return contract, "", nil
	case err != nil:
		return nil, "", fmt.Errorf("failed to get active wallet: %w", err)
	}
	return contract, wallet.Type, nil
}

// ListInvoices returns the invoices of a contract ordered by ID. An unknown contract has none.
func (o *ContractOrchestrator) ListInvoices(ctx context.Context, owner, name, username string, role models.Role) ([]models.Invoice, error) {
	_, contract, err := o.lookup(ctx, owner, name, username, role)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Invoice{}, nil
	}
	if err != nil {
		return nil, err
	}

	invoices, err := o.Store.ListInvoices(ctx, contract.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices of %s: %w", contract.ID, err)
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return invoices, nil
}

func (o *ContractOrchestrator) lookup(ctx context.Context, owner, name, username string, role models.Role) (*models.Project, *models.Contract, error) {
	project, err := o.projects.resolve(ctx, owner, name)
	if err != nil {
		return nil, nil, err
	}

	contract, err := o.Store.GetContract(ctx, contractID(*project, username, role))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrContractNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return project, contract, nil
}
