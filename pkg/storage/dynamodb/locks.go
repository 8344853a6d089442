package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// LockInvoice claims an unpaid, unlocked invoice for a payment.
func (s *Store) LockInvoice(ctx context.Context, contract models.ContractID, invoiceID int, token string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Invoices),
		Key:                 invoiceKey(contract, invoiceID),
		UpdateExpression:    aws.String("SET payment_lock = :token, payment_locked_at = :now, lock_state = :locked"),
		ConditionExpression: aws.String("attribute_exists(invoice_id) AND is_paid = :false AND attribute_not_exists(payment_lock)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token":  &types.AttributeValueMemberS{Value: token},
			":now":    &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().UnixMilli(), 10)},
			":locked": &types.AttributeValueMemberS{Value: lockedState},
			":false":  &types.AttributeValueMemberBOOL{Value: false},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	ccf, ok := isConditionalCheckFailed(err)
	if !ok {
		return fmt.Errorf("failed to lock invoice in DynamoDB: %w", err)
	}
	if ccf.Item == nil {
		return fmt.Errorf("invoice #%d of %s: %w", invoiceID, contract, storage.ErrNotFound)
	}
	var current invoiceItem
	if err := attributevalue.UnmarshalMap(ccf.Item, &current); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}
	if current.IsPaid {
		return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrInvoiceAlreadyPaid)
	}
	return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrPaymentInProgress)
}

// UnlockInvoice releases the claim held under token.
func (s *Store) UnlockInvoice(ctx context.Context, contract models.ContractID, invoiceID int, token string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Invoices),
		Key:                 invoiceKey(contract, invoiceID),
		UpdateExpression:    aws.String("REMOVE payment_lock, payment_locked_at, lock_state"),
		ConditionExpression: aws.String("payment_lock = :token"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: token},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	ccf, ok := isConditionalCheckFailed(err)
	if !ok {
		return fmt.Errorf("failed to unlock invoice in DynamoDB: %w", err)
	}
	if ccf.Item == nil {
		return fmt.Errorf("invoice #%d of %s: %w", invoiceID, contract, storage.ErrNotFound)
	}
	return fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
}

// GetStaleLocks queries the sparse lock index for claims older than maxAge.
func (s *Store) GetStaleLocks(ctx context.Context, maxAge time.Duration) ([]models.InvoiceLock, error) {
	cutoff := s.now().Add(-maxAge)

	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Invoices),
		IndexName:              aws.String(staleLockGSI),
		KeyConditionExpression: aws.String("lock_state = :locked AND payment_locked_at < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":locked": &types.AttributeValueMemberS{Value: lockedState},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.UnixMilli(), 10)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query stale locks from DynamoDB: %w", err)
	}

	var rows []invoiceItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal locked invoices: %w", err)
	}

	locks := make([]models.InvoiceLock, 0, len(rows))
	for _, row := range rows {
		locks = append(locks, row.toLock())
	}
	return locks, nil
}
