package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/chris/project-billing/pkg/models"
)

// EventTypeAttribute is the SQS message attribute naming the event type.
const EventTypeAttribute = "event_type"

// PaymentRegisteredEvent is the event type of a PaymentEvent message.
const PaymentRegisteredEvent = "payment.registered"

// SQSAPI is the subset of the SQS client used by SQSPublisher.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher implements the Publisher interface using AWS SQS.
type SQSPublisher struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSPublisher creates a new SQSPublisher.
func NewSQSPublisher(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Publisher = (*SQSPublisher)(nil)

// Publish sends the event to the SQS queue as a JSON message.
func (p *SQSPublisher) Publish(ctx context.Context, event models.PaymentEvent) error {
	// Marshal the event to JSON.
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event for SQS: %w", err)
	}

	// Send the message to SQS.
	_, err = p.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			EventTypeAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(PaymentRegisteredEvent),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send payment event %s to SQS: %w", event.ID, err)
	}

	return nil
}
