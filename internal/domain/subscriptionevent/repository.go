package subscriptionevent

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/types"
)

// Repository is append-only: events are never updated or deleted
type Repository interface {
	Create(ctx context.Context, event *SubscriptionEvent) error
	List(ctx context.Context, filter *types.SubscriptionEventFilter) ([]*SubscriptionEvent, error)
	Count(ctx context.Context, filter *types.SubscriptionEventFilter) (int, error)
}
