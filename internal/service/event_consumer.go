package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/metrics"
	"github.com/ispbilling/ispbilling/internal/pubsub"
	"github.com/ispbilling/ispbilling/internal/types"
)

// EventConsumer tails the subscription events topic. It is the reference
// downstream consumer: every event is decoded, logged and counted.
type EventConsumer interface {
	// Run blocks until ctx is done or the subscription channel closes
	Run(ctx context.Context) error
	Handle(msg *message.Message) error
}

type eventConsumer struct {
	ServiceParams
	subscriber pubsub.Subscriber
	topic      string
}

func NewEventConsumer(params ServiceParams, subscriber pubsub.Subscriber) EventConsumer {
	return &eventConsumer{
		ServiceParams: params,
		subscriber:    subscriber,
		topic:         params.Config.Events.Topic,
	}
}

func (c *eventConsumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not subscribe to the events topic").
			WithReportableDetails(map[string]any{"topic": c.topic}).
			Mark(ierr.ErrSystem)
	}

	c.Logger.Infow("event consumer started", "topic", c.topic)
	for {
		select {
		case <-ctx.Done():
			c.Logger.Infow("event consumer stopped", "topic", c.topic)
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := c.Handle(msg); err != nil {
				c.Sentry.CaptureException(err)
			}
			// undecodable messages would be redelivered forever
			msg.Ack()
		}
	}
}

// Handle decodes and logs one event message
func (c *eventConsumer) Handle(msg *message.Message) error {
	var event subscriptionevent.SubscriptionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.Logger.Errorw("dropping undecodable subscription event",
			"message_id", msg.UUID,
			"error", err,
		)
		c.Metrics.RecordEventConsumed("unknown", metrics.StatusError)
		return ierr.WithError(err).
			WithHint("Malformed subscription event").
			WithReportableDetails(map[string]any{"message_id": msg.UUID}).
			Mark(ierr.ErrValidation)
	}

	ctx := types.SetTenantID(msg.Context(), event.TenantID)
	ctx = types.SetRequestID(ctx, msg.UUID)

	c.Logger.WithContext(ctx).Infow("subscription event consumed",
		"event_id", event.ID,
		"subscription_id", event.SubscriptionID,
		"event_type", event.EventType,
		"created_at", event.CreatedAt,
	)
	c.Metrics.RecordEventConsumed(string(event.EventType), metrics.StatusSuccess)
	return nil
}
