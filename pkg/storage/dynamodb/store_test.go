package dynamodb

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	project  = models.Project{RepoFullName: "john/test", Provider: "github", Owner: "john"}
	devID    = models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: "github", Role: models.RoleDeveloper}
)

func newTestStore(t *testing.T) (*Store, *mocks.DynamoDBAPI) {
	t.Helper()
	client := mocks.NewDynamoDBAPI(t)
	store := New(client, Tables{
		Projects:  "projects",
		Contracts: "contracts",
		Invoices:  "invoices",
		Wallets:   "wallets",
		Payments:  "payments",
	})
	store.Now = func() time.Time { return fixedNow }
	return store, client
}

func marshalItem(t *testing.T, v any) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

func conditionFailed(item map[string]types.AttributeValue) error {
	return &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed"), Item: item}
}

func transactionCanceled(codes ...string) error {
	reasons := make([]types.CancellationReason, 0, len(codes))
	for _, code := range codes {
		reasons = append(reasons, types.CancellationReason{Code: aws.String(code)})
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}
