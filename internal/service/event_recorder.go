package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	"github.com/ispbilling/ispbilling/internal/sentry"
	"github.com/ispbilling/ispbilling/internal/types"
)

// Failure stages reported by the recorder
const (
	eventStagePersist = "persist"
	eventStagePublish = "publish"
)

// EventRecorder appends lifecycle events. Recording is best effort: the
// recorder never fails the caller, it logs and reports instead.
type EventRecorder interface {
	RecordEvent(ctx context.Context, subscriptionID string, eventType types.SubscriptionEventType, data types.EventData, userID string)
}

type eventRecorder struct {
	ServiceParams
	topic string
}

func NewEventRecorder(params ServiceParams) EventRecorder {
	return &eventRecorder{
		ServiceParams: params,
		topic:         params.Config.Events.Topic,
	}
}

// RecordEvent persists the event and then publishes it on the events topic.
// It must only be called once the state change it describes is committed.
func (r *eventRecorder) RecordEvent(
	ctx context.Context,
	subscriptionID string,
	eventType types.SubscriptionEventType,
	data types.EventData,
	userID string,
) {
	event := subscriptionevent.New(ctx, subscriptionID, eventType, data, userID, r.Clock.Now())
	log := r.Logger.WithContext(ctx).With(
		"subscription_id", subscriptionID,
		"event_type", eventType,
		"event_id", event.ID,
	)

	if err := event.Validate(); err != nil {
		r.fail(ctx, event, eventStagePersist, err)
		return
	}

	if err := r.SubscriptionEventRepo.Create(ctx, event); err != nil {
		r.fail(ctx, event, eventStagePersist, err)
		return
	}
	r.Metrics.RecordSubscriptionEvent(string(eventType))

	if r.EventPublisher == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.fail(ctx, event, eventStagePublish, err)
		return
	}

	span, spanCtx := r.Sentry.StartPublishSpan(ctx, r.topic)
	defer sentry.FinishSpan(span)

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("subscription_id", subscriptionID)
	msg.Metadata.Set("event_type", string(eventType))

	if err := r.EventPublisher.Publish(spanCtx, r.topic, msg); err != nil {
		r.fail(ctx, event, eventStagePublish, err)
		return
	}

	log.Debugw("subscription event recorded")
}

func (r *eventRecorder) fail(ctx context.Context, event *subscriptionevent.SubscriptionEvent, stage string, err error) {
	r.Logger.WithContext(ctx).Errorw("failed to record subscription event",
		"subscription_id", event.SubscriptionID,
		"event_type", event.EventType,
		"event_id", event.ID,
		"stage", stage,
		"error", err,
	)
	r.Metrics.RecordEventFailure(string(event.EventType), stage)
	r.Sentry.CaptureExceptionWithContext(ctx, err, map[string]string{
		"component":  "event_recorder",
		"stage":      stage,
		"event_type": string(event.EventType),
	})
}
