// Package events publishes payment outcomes for asynchronous consumers.
package events

import (
	"context"

	"github.com/chris/project-billing/pkg/models"
)

// Publisher defines the interface for a component that emits payment events.
type Publisher interface {
	// Publish enqueues the event. Delivery is at least once; consumers dedupe on event ID.
	Publish(ctx context.Context, event models.PaymentEvent) error
}

// NoOpPublisher discards every event.
type NoOpPublisher struct{}

// Publish does nothing.
func (NoOpPublisher) Publish(context.Context, models.PaymentEvent) error {
	return nil
}
