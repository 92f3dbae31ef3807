package subscriptionevent

import (
	"context"
	"time"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
)

// SubscriptionEvent is an immutable audit record of a lifecycle transition
type SubscriptionEvent struct {
	ID             string                      `db:"id" json:"id"`
	TenantID       string                      `db:"tenant_id" json:"tenant_id"`
	SubscriptionID string                      `db:"subscription_id" json:"subscription_id"`
	EventType      types.SubscriptionEventType `db:"event_type" json:"event_type"`
	EventData      types.EventData             `db:"event_data" json:"event_data"`
	UserID         *string                     `db:"user_id" json:"user_id,omitempty"`
	CreatedAt      time.Time                   `db:"created_at" json:"created_at"`
}

// New builds an event for the tenant in ctx. An empty userID is stored as nil.
func New(ctx context.Context, subscriptionID string, eventType types.SubscriptionEventType, data types.EventData, userID string, now time.Time) *SubscriptionEvent {
	if data == nil {
		data = types.EventData{}
	}
	e := &SubscriptionEvent{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_EVENT),
		TenantID:       types.GetTenantID(ctx),
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		EventData:      data,
		CreatedAt:      now.UTC(),
	}
	if userID != "" {
		e.UserID = &userID
	}
	return e
}

func (e *SubscriptionEvent) Validate() error {
	if e.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	if e.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			WithHint("A tenant ID is required for this operation").
			Mark(ierr.ErrValidation)
	}
	return e.EventType.Validate()
}
