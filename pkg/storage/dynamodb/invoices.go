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
	"github.com/chris/project-billing/pkg/storage"
)

// GetInvoice retrieves an invoice of a contract by its number.
func (s *Store) GetInvoice(ctx context.Context, contract models.ContractID, invoiceID int) (*models.Invoice, error) {
	item, err := s.getInvoiceItem(ctx, contract, invoiceID)
	if err != nil {
		return nil, err
	}
	invoice := item.toModel()
	return &invoice, nil
}

// ListInvoices returns the invoices of a contract ordered by number.
func (s *Store) ListInvoices(ctx context.Context, contract models.ContractID) ([]models.Invoice, error) {
	rows, err := s.queryInvoiceItems(ctx, contract)
	if err != nil {
		return nil, err
	}
	invoices := make([]models.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, row.toModel())
	}
	return invoices, nil
}

// ActiveInvoice returns the newest unpaid invoice, opening the next one when all are paid.
func (s *Store) ActiveInvoice(ctx context.Context, contract models.ContractID) (*models.Invoice, error) {
	// 1. Look for an unpaid invoice among the existing ones.
	rows, err := s.queryInvoiceItems(ctx, contract)
	if err != nil {
		return nil, err
	}
	maxID := 0
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].InvoiceID > maxID {
			maxID = rows[i].InvoiceID
		}
		if !rows[i].IsPaid {
			invoice := rows[i].toModel()
			return &invoice, nil
		}
	}

	// 2. Open the next invoice. A concurrent caller may have opened it first.
	invoice := models.Invoice{ID: maxID + 1, Contract: contract, CreatedAt: s.now()}
	av, err := attributevalue.MarshalMap(newInvoiceItem(invoice))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice: %w", err)
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Invoices),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(invoice_id)"),
	})
	if err != nil {
		if _, ok := isConditionalCheckFailed(err); ok {
			return s.GetInvoice(ctx, contract, invoice.ID)
		}
		return nil, fmt.Errorf("failed to create invoice in DynamoDB: %w", err)
	}
	return &invoice, nil
}

func (s *Store) getInvoiceItem(ctx context.Context, contract models.ContractID, invoiceID int) (*invoiceItem, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Invoices),
		Key:            invoiceKey(contract, invoiceID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("invoice #%d of %s: %w", invoiceID, contract, storage.ErrNotFound)
	}

	var item invoiceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
	}
	return &item, nil
}

func (s *Store) queryInvoiceItems(ctx context.Context, contract models.ContractID) ([]invoiceItem, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Invoices),
		KeyConditionExpression: aws.String("contract_id = :contract_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":contract_id": &types.AttributeValueMemberS{Value: contract.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices from DynamoDB: %w", err)
	}

	var rows []invoiceItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoices: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].InvoiceID < rows[j].InvoiceID })
	return rows, nil
}
