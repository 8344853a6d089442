package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/project-billing/pkg/billing"
	billingevents "github.com/chris/project-billing/pkg/events"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var devID = models.ContractID{RepoFullName: "john/test", ContributorUsername: "mihai", Provider: "github", Role: models.RoleDeveloper}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func message(t *testing.T, id string, event models.PaymentEvent) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	eventType := billingevents.PaymentRegisteredEvent
	return events.SQSMessage{
		MessageId: id,
		Body:      string(body),
		MessageAttributes: map[string]events.SQSMessageAttribute{
			billingevents.EventTypeAttribute: {DataType: "String", StringValue: &eventType},
		},
	}
}

type failingRecorder struct{}

func (failingRecorder) RecordPaymentEvent(context.Context, models.PaymentEvent) error {
	return errors.New("store unavailable")
}

func TestHandleRequest_RecordsEvents(t *testing.T) {
	store := memory.New()
	h := &handler{ledger: billing.NewPaymentLedger(store, discardLogger()), logger: discardLogger()}
	event := models.PaymentEvent{
		ID:        "evt-1",
		Contract:  devID,
		InvoiceID: 1,
		Payment:   models.Payment{TransactionID: "fake_payment_1", Status: models.PaymentSuccessful, Amount: 1000},
	}

	response, err := h.HandleRequest(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m-1", event),
		message(t, "m-2", event),
		{MessageId: "m-3", Body: "not json"},
	}})

	require.NoError(t, err)
	assert.Equal(t, []events.SQSBatchItemFailure{{ItemIdentifier: "m-3"}}, response.BatchItemFailures)

	records, err := store.ListPayments(context.Background(), devID, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fake_payment_1", records[0].Payment.TransactionID)
}

func TestHandleRequest_ReportsFailures(t *testing.T) {
	h := &handler{ledger: failingRecorder{}, logger: discardLogger()}

	response, err := h.HandleRequest(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m-1", models.PaymentEvent{ID: "evt-1", Contract: devID, InvoiceID: 1}),
	}})

	require.NoError(t, err)
	assert.Equal(t, []events.SQSBatchItemFailure{{ItemIdentifier: "m-1"}}, response.BatchItemFailures)
}

func TestHandleRequest_SkipsOtherEventTypes(t *testing.T) {
	h := &handler{ledger: failingRecorder{}, logger: discardLogger()}
	other := "invoice.created"

	response, err := h.HandleRequest(context.Background(), events.SQSEvent{Records: []events.SQSMessage{{
		MessageId: "m-1",
		Body:      "{}",
		MessageAttributes: map[string]events.SQSMessageAttribute{
			billingevents.EventTypeAttribute: {DataType: "String", StringValue: &other},
		},
	}}})

	require.NoError(t, err)
	assert.Empty(t, response.BatchItemFailures)
}
