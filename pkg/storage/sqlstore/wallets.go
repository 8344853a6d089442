package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"gorm.io/gorm"
)

func (s *Store) ListWallets(ctx context.Context, project models.Project) ([]models.Wallet, error) {
	var rows []walletRow
	err := s.db.WithContext(ctx).
		Preload("PaymentMethods").
		Where("project_key = ?", project.Key()).
		Order("wallet_type").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	wallets := make([]models.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, row.toModel())
	}
	return wallets, nil
}

func (s *Store) ActiveWallet(ctx context.Context, project models.Project) (*models.Wallet, error) {
	var row walletRow
	err := s.db.WithContext(ctx).
		Preload("PaymentMethods").
		Where("project_key = ? AND active = ?", project.Key(), true).
		Take(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("active wallet of %s: %w", project.Key(), storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active wallet: %w", err)
	}
	wallet := row.toModel()
	return &wallet, nil
}

func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	wallet.Active = false
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = s.now()
	}
	row := newWalletRow(*wallet)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("wallet %s of %s: %w", wallet.Type, wallet.ProjectKey, storage.ErrWalletAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	created := row.toModel()
	return &created, nil
}

func (s *Store) ActivateWallet(ctx context.Context, project models.Project, walletType models.WalletType) (*models.Wallet, error) {
	var activated *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getWallet(tx, project.Key(), walletType); err != nil {
			return err
		}
		if err := tx.Model(&walletRow{}).
			Where("project_key = ?", project.Key()).
			Update("active", gorm.Expr("wallet_type = ?", string(walletType))).Error; err != nil {
			return fmt.Errorf("failed to activate wallet: %w", err)
		}
		var err error
		activated, err = s.getWallet(tx, project.Key(), walletType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

func (s *Store) UpdateCash(ctx context.Context, project models.Project, walletType models.WalletType, cash models.Money) (*models.Wallet, error) {
	var updated *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&walletRow{}).
			Where("project_key = ? AND wallet_type = ?", project.Key(), string(walletType)).
			Update("cash", int64(cash))
		if res.Error != nil {
			return fmt.Errorf("failed to update wallet cash: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("wallet %s of %s: %w", walletType, project.Key(), storage.ErrNotFound)
		}
		var err error
		updated, err = s.getWallet(tx, project.Key(), walletType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) getWallet(db *gorm.DB, projectKey string, walletType models.WalletType) (*models.Wallet, error) {
	var row walletRow
	err := db.Preload("PaymentMethods").
		First(&row, "project_key = ? AND wallet_type = ?", projectKey, string(walletType)).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("wallet %s of %s: %w", walletType, projectKey, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	wallet := row.toModel()
	return &wallet, nil
}
