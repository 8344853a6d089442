package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func walletAV(t *testing.T, w models.Wallet) map[string]types.AttributeValue {
	t.Helper()
	return marshalItem(t, newWalletItem(w))
}

func TestCreateWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			active := in.Item["active"].(*types.AttributeValueMemberBOOL)
			return aws.ToString(in.TableName) == "wallets" && !active.Value
		})).Return(&dynamodb.PutItemOutput{}, nil)

		wallet, err := store.CreateWallet(context.Background(), &models.Wallet{
			ProjectKey:  project.Key(),
			Type:        models.FakeWallet,
			Active:      true,
			Cash:        100_000_000,
			BillingInfo: models.BillingInfo{Email: "john@example.com"},
		})

		require.NoError(t, err)
		assert.False(t, wallet.Active)
		assert.Equal(t, fixedNow, wallet.CreatedAt)
	})

	t.Run("Already Exists", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("PutItem", mock.Anything, mock.Anything).Return(nil, conditionFailed(nil))

		_, err := store.CreateWallet(context.Background(), &models.Wallet{ProjectKey: project.Key(), Type: models.FakeWallet})

		assert.ErrorIs(t, err, storage.ErrWalletAlreadyExists)
	})

	t.Run("DynamoDB Error", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error"))

		_, err := store.CreateWallet(context.Background(), &models.Wallet{ProjectKey: project.Key(), Type: models.FakeWallet})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create wallet in DynamoDB")
	})
}

func TestActiveWallet(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		store, client := newTestStore(t)
		active := models.Wallet{ProjectKey: project.Key(), Type: models.StripeWallet, Active: true, Cash: 5000, Debt: 1000,
			PaymentMethods: []models.PaymentMethod{{ID: "pm_1", Active: true}}}
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return aws.ToString(in.FilterExpression) == "#active = :true"
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{walletAV(t, active)}}, nil)

		got, err := store.ActiveWallet(context.Background(), project)

		require.NoError(t, err)
		assert.Equal(t, models.StripeWallet, got.Type)
		assert.Equal(t, models.Money(4000), got.Available())
		assert.Equal(t, []models.PaymentMethod{{ID: "pm_1", Active: true}}, got.PaymentMethods)
	})

	t.Run("None Active", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

		_, err := store.ActiveWallet(context.Background(), project)

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestActivateWallet(t *testing.T) {
	fake := models.Wallet{ProjectKey: project.Key(), Type: models.FakeWallet, Active: true}
	stripe := models.Wallet{ProjectKey: project.Key(), Type: models.StripeWallet}

	t.Run("Switches Active Wallet", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return aws.ToBool(in.ConsistentRead) && in.FilterExpression == nil
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
			walletAV(t, fake), walletAV(t, stripe),
		}}, nil)
		client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			if len(in.TransactItems) != 2 {
				return false
			}
			fakeActive := in.TransactItems[0].Update.ExpressionAttributeValues[":active"].(*types.AttributeValueMemberBOOL)
			stripeActive := in.TransactItems[1].Update.ExpressionAttributeValues[":active"].(*types.AttributeValueMemberBOOL)
			return !fakeActive.Value && stripeActive.Value
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		got, err := store.ActivateWallet(context.Background(), project, models.StripeWallet)

		require.NoError(t, err)
		assert.Equal(t, models.StripeWallet, got.Type)
		assert.True(t, got.Active)
	})

	t.Run("Unknown Type", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
			walletAV(t, fake),
		}}, nil)

		_, err := store.ActivateWallet(context.Background(), project, models.StripeWallet)

		assert.ErrorIs(t, err, storage.ErrNotFound)
		client.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
	})
}

func TestUpdateCash(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, client := newTestStore(t)
		updated := walletAV(t, models.Wallet{ProjectKey: project.Key(), Type: models.StripeWallet, Cash: 25000})
		client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			cash := in.ExpressionAttributeValues[":cash"].(*types.AttributeValueMemberN)
			return cash.Value == "25000"
		})).Return(&dynamodb.UpdateItemOutput{Attributes: updated}, nil)

		got, err := store.UpdateCash(context.Background(), project, models.StripeWallet, 25000)

		require.NoError(t, err)
		assert.Equal(t, models.Money(25000), got.Cash)
	})

	t.Run("Not Found", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, conditionFailed(nil))

		_, err := store.UpdateCash(context.Background(), project, models.StripeWallet, 25000)

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
