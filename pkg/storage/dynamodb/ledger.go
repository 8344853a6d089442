package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
)

// AppendPayment writes a ledger entry. Replaying an entry that already exists is a no-op.
func (s *Store) AppendPayment(ctx context.Context, record models.PaymentRecord) error {
	av, err := attributevalue.MarshalMap(newPaymentRecordItem(record))
	if err != nil {
		return fmt.Errorf("failed to marshal payment record: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Payments),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
	})
	if err != nil {
		if _, ok := isConditionalCheckFailed(err); ok {
			return nil
		}
		return fmt.Errorf("failed to append payment record in DynamoDB: %w", err)
	}
	return nil
}

// ListPayments returns the ledger entries of an invoice, oldest payment first.
func (s *Store) ListPayments(ctx context.Context, contract models.ContractID, invoiceID int) ([]models.PaymentRecord, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Payments),
		KeyConditionExpression: aws.String("invoice_key = :invoice_key"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":invoice_key": &types.AttributeValueMemberS{Value: ledgerKey(contract, invoiceID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query payment records from DynamoDB: %w", err)
	}

	var rows []paymentRecordItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment records: %w", err)
	}

	records := make([]models.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Payment.PaymentTime.Before(records[j].Payment.PaymentTime)
	})
	return records, nil
}
