package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/bootstrap"
	"github.com/chris/project-billing/pkg/config"
	billingevents "github.com/chris/project-billing/pkg/events"
	"github.com/chris/project-billing/pkg/logging"
	"github.com/chris/project-billing/pkg/models"
	"github.com/joho/godotenv"
)

type eventRecorder interface {
	RecordPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

type handler struct {
	ledger eventRecorder
	logger *slog.Logger
}

// HandleRequest records the payment events of an SQS batch. Messages that fail are
// reported back so that only they are redelivered.
func (h *handler) HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var response events.SQSEventResponse
	for _, message := range sqsEvent.Records {
		if attr, ok := message.MessageAttributes[billingevents.EventTypeAttribute]; ok &&
			attr.StringValue != nil && *attr.StringValue != billingevents.PaymentRegisteredEvent {
			h.logger.Warn("skipping message of unknown event type", "message_id", message.MessageId, "event_type", *attr.StringValue)
			continue
		}

		var event models.PaymentEvent
		if err := json.Unmarshal([]byte(message.Body), &event); err != nil {
			h.logger.Error("failed to unmarshal payment event", "message_id", message.MessageId, "error", err)
			response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
			continue
		}

		if err := h.ledger.RecordPaymentEvent(ctx, event); err != nil {
			h.logger.Error("failed to record payment event", "message_id", message.MessageId, "event_id", event.ID, "error", err)
			response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		}
	}
	return response, nil
}

func main() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := logging.New(cfg.Logging)

	backends, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialise backends", "error", err)
		os.Exit(1)
	}

	h := &handler{ledger: billing.NewPaymentLedger(backends.Store, logger), logger: logger}
	lambda.Start(h.HandleRequest)
}
