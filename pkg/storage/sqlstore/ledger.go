package sqlstore

import (
	"context"
	"fmt"

	"github.com/chris/project-billing/pkg/models"
	"gorm.io/gorm/clause"
)

func (s *Store) AppendPayment(ctx context.Context, record models.PaymentRecord) error {
	row := newPaymentRecordRow(record)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "entry_id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to append payment record: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, contract models.ContractID, invoiceID int) ([]models.PaymentRecord, error) {
	var rows []paymentRecordRow
	err := s.db.WithContext(ctx).
		Where("invoice_key = ?", ledgerKey(contract, invoiceID)).
		Order("payment_paid_at, entry_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	records := make([]models.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}
