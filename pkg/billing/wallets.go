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

// FakeWalletCash is the cash limit a new FAKE wallet starts with.
const FakeWalletCash models.Money = 100_000_000

// WalletsStore is the data access needed by WalletOrchestrator.
type WalletsStore interface {
	storage.ProjectReader
	storage.WalletStore
}

// WalletOrchestrator manages the wallets of a project.
type WalletOrchestrator struct {
	Store    WalletsStore
	Logger   *slog.Logger
	projects projectResolver
}

// NewWalletOrchestrator creates a WalletOrchestrator resolving projects of provider.
func NewWalletOrchestrator(store WalletsStore, provider string, logger *slog.Logger) *WalletOrchestrator {
	return &WalletOrchestrator{
		Store:    store,
		Logger:   logger,
		projects: projectResolver{projects: store, provider: provider},
	}
}

// ListWallets returns the wallets of a project. An unknown project has no wallets.
func (o *WalletOrchestrator) ListWallets(ctx context.Context, owner, name string) ([]models.Wallet, error) {
	project, err := o.projects.resolve(ctx, owner, name)
	if errors.Is(err, ErrProjectNotFound) {
		return []models.Wallet{}, nil
	}
	if err != nil {
		return nil, err
	}

	wallets, err := o.Store.ListWallets(ctx, *project)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets of %s: %w", project.RepoFullName, err)
	}
	if wallets == nil {
		wallets = []models.Wallet{}
	}
	return wallets, nil
}

// CreateWallet adds an inactive wallet of walletType to a project.
func (o *WalletOrchestrator) CreateWallet(ctx context.Context, owner, name string, walletType models.WalletType, billingInfo models.BillingInfo) (*models.Wallet, error) {
	if !walletType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedWalletType, walletType)
	}
	project, err := o.projects.resolve(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	wallet := &models.Wallet{
		ProjectKey:     project.Key(),
		Type:           walletType,
		PaymentMethods: []models.PaymentMethod{},
		BillingInfo:    billingInfo,
		CreatedAt:      time.Now().UTC(),
	}
	if walletType == models.FakeWallet {
		wallet.Cash = FakeWalletCash
	}

	created, err := o.Store.CreateWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s wallet: %w", walletType, err)
	}
	o.Logger.Info("wallet created",
		slog.String("project", project.Key()),
		slog.String("wallet_type", string(walletType)),
	)
	return created, nil
}

// Activate makes the wallet of walletType the project's only active wallet.
func (o *WalletOrchestrator) Activate(ctx context.Context, owner, name string, walletType models.WalletType) (*models.Wallet, error) {
	project, _, err := o.find(ctx, owner, name, walletType)
	if err != nil {
		return nil, err
	}

	activated, err := o.Store.ActivateWallet(ctx, *project, walletType)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to activate %s wallet: %w", walletType, err)
	}
	o.Logger.Info("wallet activated",
		slog.String("project", project.Key()),
		slog.String("wallet_type", string(walletType)),
	)
	return activated, nil
}

// UpdateCash sets the cash limit of a wallet, rounding to cents half up.
// FAKE wallets keep their fixed limit and are rejected before any lookup.
func (o *WalletOrchestrator) UpdateCash(ctx context.Context, owner, name string, walletType models.WalletType, cash decimal.Decimal) (*models.Wallet, error) {
	if walletType == models.FakeWallet {
		return nil, fmt.Errorf("%w: cash of %s wallets cannot be changed", ErrUnsupportedWalletType, walletType)
	}
	if !walletType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedWalletType, walletType)
	}
	if cash.IsNegative() {
		return nil, fmt.Errorf("%w: cash %s", ErrInvalidAmount, cash)
	}

	project, _, err := o.find(ctx, owner, name, walletType)
	if err != nil {
		return nil, err
	}

	updated, err := o.Store.UpdateCash(ctx, *project, walletType, models.MoneyFromDecimal(cash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cash of %s wallet: %w", walletType, err)
	}
	return updated, nil
}

func (o *WalletOrchestrator) find(ctx context.Context, owner, name string, walletType models.WalletType) (*models.Project, *models.Wallet, error) {
	project, err := o.projects.resolve(ctx, owner, name)
	if err != nil {
		return nil, nil, err
	}
	wallets, err := o.Store.ListWallets(ctx, *project)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list wallets of %s: %w", project.RepoFullName, err)
	}
	for i := range wallets {
		if wallets[i].Type == walletType {
			return project, &wallets[i], nil
		}
	}
	return nil, nil, ErrWalletNotFound
}
