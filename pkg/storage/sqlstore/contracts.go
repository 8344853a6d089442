package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterProject upserts a project.
func (s *Store) RegisterProject(ctx context.Context, project models.Project) error {
	row := projectRow{
		ProjectKey:     project.Key(),
		RepoFullName:   project.RepoFullName,
		Provider:       project.Provider,
		Owner:          project.Owner,
		ProjectManager: project.ProjectManager,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to register project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, repoFullName, provider string) (*models.Project, error) {
	key := models.Project{RepoFullName: repoFullName, Provider: provider}.Key()
	var row projectRow
	if err := s.db.WithContext(ctx).First(&row, "project_key = ?", key).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("project %s: %w", key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	project := row.toModel()
	return &project, nil
}

func (s *Store) ListContracts(ctx context.Context, project models.Project) ([]models.Contract, error) {
	var rows []contractRow
	err := s.db.WithContext(ctx).
		Where("project_key = ?", project.Key()).
		Order("contract_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	contracts := make([]models.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.toModel())
	}
	return contracts, nil
}

func (s *Store) GetContract(ctx context.Context, id models.ContractID) (*models.Contract, error) {
	return s.getContract(s.db.WithContext(ctx), id)
}

func (s *Store) CreateContract(ctx context.Context, contract *models.Contract) (*models.Contract, error) {
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = s.now()
	}
	row := newContractRow(*contract)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("contract %s: %w", contract.ID, storage.ErrContractAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	created := row.toModel()
	return &created, nil
}

func (s *Store) RestoreContract(ctx context.Context, id models.ContractID) (*models.Contract, error) {
	var restored *models.Contract
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getContract(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&contractRow{}).
			Where("contract_key = ?", id.String()).
			Update("marked_for_removal", nil).Error; err != nil {
			return fmt.Errorf("failed to restore contract: %w", err)
		}
		var err error
		restored, err = s.getContract(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// MarkForRemoval flags a stored contract for deletion.
func (s *Store) MarkForRemoval(ctx context.Context, id models.ContractID) error {
	at := s.now()
	res := s.db.WithContext(ctx).Model(&contractRow{}).
		Where("contract_key = ?", id.String()).
		Update("marked_for_removal", &at)
	if res.Error != nil {
		return fmt.Errorf("failed to mark contract for removal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) getContract(db *gorm.DB, id models.ContractID) (*models.Contract, error) {
	var row contractRow
	if err := db.First(&row, "contract_key = ?", id.String()).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	contract := row.toModel()
	return &contract, nil
}
