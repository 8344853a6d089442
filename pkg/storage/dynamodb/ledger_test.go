package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAppendPayment(t *testing.T) {
	record := models.PaymentRecord{
		EntryID:   "evt-1",
		Contract:  devID,
		InvoiceID: 2,
		Payment:   models.Payment{TransactionID: "fake_payment_1", Status: models.PaymentSuccessful, Amount: 1000},
	}

	t.Run("Writes Entry", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			key := in.Item["invoice_key"].(*types.AttributeValueMemberS)
			return aws.ToString(in.TableName) == "payments" && key.Value == "github#john/test#mihai#DEV#2"
		})).Return(&dynamodb.PutItemOutput{}, nil)

		assert.NoError(t, store.AppendPayment(context.Background(), record))
	})

	t.Run("Duplicate Is Ignored", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("PutItem", mock.Anything, mock.Anything).Return(nil, conditionFailed(nil))

		assert.NoError(t, store.AppendPayment(context.Background(), record))
	})

	t.Run("DynamoDB Error", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error"))

		assert.Error(t, store.AppendPayment(context.Background(), record))
	})
}

func TestListPayments_OldestFirst(t *testing.T) {
	store, client := newTestStore(t)
	later := newPaymentRecordItem(models.PaymentRecord{EntryID: "a", Contract: devID, InvoiceID: 2,
		Payment: models.Payment{TransactionID: "second", PaymentTime: fixedNow}})
	earlier := newPaymentRecordItem(models.PaymentRecord{EntryID: "b", Contract: devID, InvoiceID: 2,
		Payment: models.Payment{TransactionID: "first", PaymentTime: fixedNow.Add(-time.Hour)}})
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		marshalItem(t, later), marshalItem(t, earlier),
	}}, nil)

	records, err := store.ListPayments(context.Background(), devID, 2)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Payment.TransactionID)
	assert.Equal(t, "second", records[1].Payment.TransactionID)
	assert.Equal(t, devID, records[0].Contract)
}
