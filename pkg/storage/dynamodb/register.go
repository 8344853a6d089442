package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// RegisterPayment stores the outcome of a payment and releases the invoice lock in one transaction.
// A successful payment also marks the invoice paid and charges its total to the wallet's debt.
func (s *Store) RegisterPayment(ctx context.Context, contract models.ContractID, invoiceID int, token string, wallet models.Wallet, payment models.Payment) (*models.Invoice, error) {
	// 1. Read the invoice to learn the amount owed.
	item, err := s.getInvoiceItem(ctx, contract, invoiceID)
	if err != nil {
		return nil, err
	}

	paymentAV, err := attributevalue.Marshal(newPaymentItem(payment))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment: %w", err)
	}

	// 2. Update the invoice, conditioned on the lock still being ours.
	invoiceUpdate := &types.Update{
		TableName:           aws.String(s.Tables.Invoices),
		Key:                 invoiceKey(contract, invoiceID),
		UpdateExpression:    aws.String("SET latest = :payment REMOVE payment_lock, payment_locked_at, lock_state"),
		ConditionExpression: aws.String("payment_lock = :token"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":payment": paymentAV,
			":token":   &types.AttributeValueMemberS{Value: token},
		},
	}
	if payment.Successful() {
		invoiceUpdate.UpdateExpression = aws.String("SET latest = :payment, is_paid = :true REMOVE payment_lock, payment_locked_at, lock_state")
		invoiceUpdate.ExpressionAttributeValues[":true"] = &types.AttributeValueMemberBOOL{Value: true}
	}
	transactItems := []types.TransactWriteItem{{Update: invoiceUpdate}}

	// 3. Charge the wallet when the payment went through.
	if payment.Successful() {
		totalAV, err := attributevalue.Marshal(item.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal invoice total: %w", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(s.Tables.Wallets),
				Key:                 walletKey(wallet.ProjectKey, wallet.Type),
				UpdateExpression:    aws.String("SET debt = debt + :total"),
				ConditionExpression: aws.String("attribute_exists(wallet_type)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":total": totalAV,
				},
			},
		})
	}

	// 4. Execute the transaction.
	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: transactItems})
	if err != nil {
		switch {
		case canceledBy(err, 0):
			return nil, fmt.Errorf("invoice #%d: %w", invoiceID, storage.ErrLockLost)
		case canceledBy(err, 1):
			return nil, fmt.Errorf("wallet %s of %s: %w", wallet.Type, wallet.ProjectKey, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to execute payment registration: %w", err)
	}

	invoice := item.toModel()
	invoice.Latest = &payment
	if payment.Successful() {
		invoice.IsPaid = true
	}
	return &invoice, nil
}
