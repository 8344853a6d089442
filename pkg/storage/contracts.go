package storage

import (
	"context"

	"github.com/chris/project-billing/pkg/models"
)

// ContractReader defines the interface for reading contracts.
type ContractReader interface {
	// ListContracts returns every contract of the project.
	ListContracts(ctx context.Context, project models.Project) ([]models.Contract, error)

	// GetContract returns a contract by its identity, or ErrNotFound.
	GetContract(ctx context.Context, id models.ContractID) (*models.Contract, error)
}

// ContractManager defines the interface for creating and restoring contracts.
type ContractManager interface {
	// CreateContract stores a new contract. It returns ErrContractAlreadyExists on duplicates.
	CreateContract(ctx context.Context, contract *models.Contract) (*models.Contract, error)

	// RestoreContract clears the removal mark of a contract, or returns ErrNotFound.
	RestoreContract(ctx context.Context, id models.ContractID) (*models.Contract, error)
}

// ContractStore combines the reader and manager interfaces.
type ContractStore interface {
	ContractReader
	ContractManager
}
