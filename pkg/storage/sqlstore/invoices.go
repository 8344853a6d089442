package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"gorm.io/gorm"
)

func (s *Store) GetInvoice(ctx context.Context, contract models.ContractID, invoiceID int) (*models.Invoice, error) {
	row, err := s.getInvoiceRow(s.db.WithContext(ctx), contract, invoiceID)
	if err != nil {
		return nil, err
	}
	invoice := row.toModel()
	return &invoice, nil
}

func (s *Store) ListInvoices(ctx context.Context, contract models.ContractID) ([]models.Invoice, error) {
	var rows []invoiceRow
	err := s.db.WithContext(ctx).
		Where("contract_key = ?", contract.String()).
		Order("number").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	invoices := make([]models.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, row.toModel())
	}
	return invoices, nil
}

// SaveInvoice inserts or replaces an invoice as is.
func (s *Store) SaveInvoice(ctx context.Context, invoice models.Invoice) error {
	row := newInvoiceRow(invoice)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (s *Store) ActiveInvoice(ctx context.Context, contract models.ContractID) (*models.Invoice, error) {
	var active models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Newest unpaid invoice.
		var row invoiceRow
		err := tx.Where("contract_key = ? AND is_paid = ?", contract.String(), false).
			Order("number DESC").
			Take(&row).Error
		if err == nil {
			active = row.toModel()
			return nil
		}
		if !isNotFound(err) {
			return fmt.Errorf("failed to find active invoice: %w", err)
		}

		// 2. Open the next one.
		var maxID int
		if err := tx.Model(&invoiceRow{}).
			Where("contract_key = ?", contract.String()).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxID).Error; err != nil {
			return fmt.Errorf("failed to number invoice: %w", err)
		}
		active = models.Invoice{ID: maxID + 1, Contract: contract, CreatedAt: s.now()}
		next := newInvoiceRow(active)
		if err := tx.Create(&next).Error; err != nil {
			return fmt.Errorf("failed to open invoice: %w", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// opened concurrently
		return s.GetInvoice(ctx, contract, active.ID)
	}
	if err != nil {
		return nil, err
	}
	return &active, nil
}

func (s *Store) LockInvoice(ctx context.Context, contract models.ContractID, invoiceID int, token string) error {
	db := s.db.WithContext(ctx)
	now := s.now()
	res := db.Model(&invoiceRow{}).
		Where("contract_key = ? AND number = ? AND is_paid = ? AND payment_lock = ?", contract.String(), invoiceID, false, "").
		Updates(map[string]any{"payment_lock": token, "payment_locked_at": &now})
	if res.Error != nil {
		return fmt.Errorf("failed to lock invoice: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	row, err := s.getInvoiceRow(db, contract, invoiceID)
	if err != nil {
		return err
	}
	if row.IsPaid {
		return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrInvoiceAlreadyPaid)
	}
	return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrPaymentInProgress)
}

func (s *Store) UnlockInvoice(ctx context.Context, contract models.ContractID, invoiceID int, token string) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&invoiceRow{}).
		Where("contract_key = ? AND number = ? AND payment_lock = ?", contract.String(), invoiceID, token).
		Updates(map[string]any{"payment_lock": "", "payment_locked_at": nil})
	if res.Error != nil {
		return fmt.Errorf("failed to unlock invoice: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := s.getInvoiceRow(db, contract, invoiceID); err != nil {
		return err
	}
	return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
}

func (s *Store) GetStaleLocks(ctx context.Context, maxAge time.Duration) ([]models.InvoiceLock, error) {
	cutoff := s.now().Add(-maxAge)
	var rows []invoiceRow
	err := s.db.WithContext(ctx).
		Where("payment_lock <> ? AND payment_locked_at < ?", "", cutoff).
		Order("payment_locked_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stale locks: %w", err)
	}
	locks := make([]models.InvoiceLock, 0, len(rows))
	for _, row := range rows {
		locks = append(locks, row.toLock())
	}
	return locks, nil
}

func (s *Store) RegisterPayment(ctx context.Context, contract models.ContractID, invoiceID int, token string, wallet models.Wallet, payment models.Payment) (*models.Invoice, error) {
	var registered models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. The invoice must still be locked by token.
		row, err := s.getInvoiceRow(tx, contract, invoiceID)
		if err != nil {
			return err
		}
		if row.PaymentLock != token {
			return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
		}

		// 2. Record the outcome and release the lock.
		updates := newPaymentColumns(payment).updates("latest_")
		updates["payment_lock"] = ""
		updates["payment_locked_at"] = nil
		if payment.Successful() {
			updates["is_paid"] = true
		}
		res := tx.Model(&invoiceRow{}).
			Where("contract_key = ? AND number = ? AND payment_lock = ?", contract.String(), invoiceID, token).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to register payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
		}

		// 3. Charge the wallet.
		if payment.Successful() {
			res := tx.Model(&walletRow{}).
				Where("project_key = ? AND wallet_type = ?", wallet.ProjectKey, string(wallet.Type)).
				Update("debt", gorm.Expr("debt + ?", row.TotalAmount))
			if res.Error != nil {
				return fmt.Errorf("failed to charge wallet: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("wallet %s of %s: %w", wallet.Type, wallet.ProjectKey, storage.ErrNotFound)
			}
		}

		updated, err := s.getInvoiceRow(tx, contract, invoiceID)
		if err != nil {
			return err
		}
		registered = updated.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &registered, nil
}

func (s *Store) getInvoiceRow(db *gorm.DB, contract models.ContractID, invoiceID int) (*invoiceRow, error) {
	var row invoiceRow
	if err := db.First(&row, "contract_key = ? AND number = ?", contract.String(), invoiceID).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("invoice #%d of %s: %w", invoiceID, contract, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &row, nil
}
