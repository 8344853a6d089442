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

// ListContracts returns every contract of the project, ordered by username and role.
func (s *Store) ListContracts(ctx context.Context, project models.Project) ([]models.Contract, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Contracts),
		KeyConditionExpression: aws.String("project_id = :project_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":project_id": &types.AttributeValueMemberS{Value: project.Key()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts from DynamoDB: %w", err)
	}

	var rows []contractItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contracts: %w", err)
	}

	contracts := make([]models.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.toModel())
	}
	return contracts, nil
}

// GetContract retrieves a contract by its identity.
func (s *Store) GetContract(ctx context.Context, id models.ContractID) (*models.Contract, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Contracts),
		Key:       contractKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get contract from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
	}

	var item contractItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contract: %w", err)
	}
	contract := item.toModel()
	return &contract, nil
}

// CreateContract stores a new contract, refusing to overwrite an existing one.
func (s *Store) CreateContract(ctx context.Context, contract *models.Contract) (*models.Contract, error) {
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = s.now()
	}

	av, err := attributevalue.MarshalMap(newContractItem(*contract))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contract: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Contracts),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(contract_key)"),
	})
	if err != nil {
		if _, ok := isConditionalCheckFailed(err); ok {
			return nil, fmt.Errorf("contract %s: %w", contract.ID, storage.ErrContractAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create contract in DynamoDB: %w", err)
	}

	created := *contract
	return &created, nil
}

// RestoreContract removes the removal mark of a contract.
func (s *Store) RestoreContract(ctx context.Context, id models.ContractID) (*models.Contract, error) {
	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Contracts),
		Key:                 contractKey(id),
		UpdateExpression:    aws.String("REMOVE marked_for_removal"),
		ConditionExpression: aws.String("attribute_exists(contract_key)"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		if _, ok := isConditionalCheckFailed(err); ok {
			return nil, fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to restore contract in DynamoDB: %w", err)
	}

	var item contractItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contract: %w", err)
	}
	contract := item.toModel()
	return &contract, nil
}
