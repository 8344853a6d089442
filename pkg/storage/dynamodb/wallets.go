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

// CreateWallet creates a new, inactive wallet record in DynamoDB.
func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	wallet.Active = false
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = s.now()
	}

	// Marshal the wallet object for the Put operation.
	walletAV, err := attributevalue.MarshalMap(newWalletItem(*wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet: %w", err)
	}

	// Prevent overwriting an existing wallet of the same type.
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Wallets),
		Item:                walletAV,
		ConditionExpression: aws.String("attribute_not_exists(wallet_type)"),
	})
	if err != nil {
		if _, ok := isConditionalCheckFailed(err); ok {
			return nil, fmt.Errorf("wallet %s of %s: %w", wallet.Type, wallet.ProjectKey, storage.ErrWalletAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create wallet in DynamoDB: %w", err)
	}

	created := *wallet
	return &created, nil
}

// ListWallets retrieves the wallets of a project.
func (s *Store) ListWallets(ctx context.Context, project models.Project) ([]models.Wallet, error) {
	return s.queryWallets(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Wallets),
		KeyConditionExpression: aws.String("project_id = :project_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":project_id": &types.AttributeValueMemberS{Value: project.Key()},
		},
		ConsistentRead: aws.Bool(true),
	})
}

// ActiveWallet retrieves the active wallet of a project.
func (s *Store) ActiveWallet(ctx context.Context, project models.Project) (*models.Wallet, error) {
	wallets, err := s.queryWallets(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Wallets),
		KeyConditionExpression: aws.String("project_id = :project_id"),
		FilterExpression:       aws.String("#active = :true"),
		ExpressionAttributeNames: map[string]string{
			"#active": "active",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":project_id": &types.AttributeValueMemberS{Value: project.Key()},
			":true":       &types.AttributeValueMemberBOOL{Value: true},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("active wallet of %s: %w", project.Key(), storage.ErrNotFound)
	}
	return &wallets[0], nil
}

// ActivateWallet activates one wallet of the project and deactivates the others in one transaction.
func (s *Store) ActivateWallet(ctx context.Context, project models.Project, walletType models.WalletType) (*models.Wallet, error) {
	// 1. Load every wallet of the project.
	wallets, err := s.ListWallets(ctx, project)
	if err != nil {
		return nil, err
	}

	var activated *models.Wallet
	transactItems := make([]types.TransactWriteItem, 0, len(wallets))
	for i := range wallets {
		active := wallets[i].Type == walletType
		wallets[i].Active = active
		if active {
			activated = &wallets[i]
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(s.Tables.Wallets),
				Key:                 walletKey(project.Key(), wallets[i].Type),
				UpdateExpression:    aws.String("SET #active = :active"),
				ConditionExpression: aws.String("attribute_exists(wallet_type)"),
				ExpressionAttributeNames: map[string]string{
					"#active": "active",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":active": &types.AttributeValueMemberBOOL{Value: active},
				},
			},
		})
	}
	if activated == nil {
		return nil, fmt.Errorf("wallet %s of %s: %w", walletType, project.Key(), storage.ErrNotFound)
	}

	// 2. Flip the flags together so at most one wallet is ever active.
	if _, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: transactItems}); err != nil {
		return nil, fmt.Errorf("failed to execute wallet activation: %w", err)
	}

	return activated, nil
}

// UpdateCash replaces the cash limit of a wallet.
func (s *Store) UpdateCash(ctx context.Context, project models.Project, walletType models.WalletType, cash models.Money) (*models.Wallet, error) {
	cashAV, err := attributevalue.Marshal(cash)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cash: %w", err)
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Wallets),
		Key:                 walletKey(project.Key(), walletType),
		UpdateExpression:    aws.String("SET cash = :cash"),
		ConditionExpression: aws.String("attribute_exists(wallet_type)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cash": cashAV,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if _, ok := isConditionalCheckFailed(err); ok {
			return nil, fmt.Errorf("wallet %s of %s: %w", walletType, project.Key(), storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update wallet cash in DynamoDB: %w", err)
	}

	var item walletItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	wallet := item.toModel()
	return &wallet, nil
}

func (s *Store) queryWallets(ctx context.Context, input *dynamodb.QueryInput) ([]models.Wallet, error) {
	items, err := s.queryAll(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets from DynamoDB: %w", err)
	}

	var rows []walletItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallets: %w", err)
	}

	wallets := make([]models.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, row.toModel())
	}
	return wallets, nil
}
