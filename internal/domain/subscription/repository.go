package subscription

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/types"
)

type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)

	// Update persists subscription if its stored version still equals
	// subscription.Version, then increments the version. A stale version
	// fails with ierr.ErrVersionConflict and writes nothing.
	Update(ctx context.Context, subscription *Subscription) error

	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
}
