package storage

import (
	"context"

	"github.com/chris/project-billing/pkg/models"
)

// WalletReader defines the interface for reading the wallets of a project.
type WalletReader interface {
	// ListWallets returns every wallet of the project.
	ListWallets(ctx context.Context, project models.Project) ([]models.Wallet, error)

	// ActiveWallet returns the project's active wallet, or ErrNotFound.
	ActiveWallet(ctx context.Context, project models.Project) (*models.Wallet, error)
}

// WalletManager defines the interface for managing wallets.
type WalletManager interface {
	// CreateWallet stores a new, inactive wallet. It returns ErrWalletAlreadyExists
	// if the project already has a wallet of that type.
	CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error)

	// ActivateWallet makes the wallet of the given type the only active one of the project.
	ActivateWallet(ctx context.Context, project models.Project, walletType models.WalletType) (*models.Wallet, error)

	// UpdateCash replaces the cash limit of a wallet.
	UpdateCash(ctx context.Context, project models.Project, walletType models.WalletType, cash models.Money) (*models.Wallet, error)
}

// WalletStore combines the reader and manager interfaces.
type WalletStore interface {
	WalletReader
	WalletManager
}
