package testutil

import (
	"context"
	"sync"

	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository with the same
// version compare-and-swap semantics as the postgres repository. Stored values
// are copied in and out so callers never share state with the store.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	mu          sync.Mutex
	beforeWrite []func(sub *subscription.Subscription) error
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

// OnNextUpdate queues a hook run before the next Update. A hook can mutate
// the stored row to simulate a concurrent writer, or return an error to fail
// the write.
func (s *InMemorySubscriptionStore) OnNextUpdate(hook func(sub *subscription.Subscription) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeWrite = append(s.beforeWrite, hook)
}

// BumpVersion simulates another writer committing first
func (s *InMemorySubscriptionStore) BumpVersion(ctx context.Context, id string) {
	stored, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return
	}
	cp := cloneSubscription(stored)
	cp.Version++
	_ = s.InMemoryStore.Update(ctx, id, cp)
}

func (s *InMemorySubscriptionStore) nextHook() func(sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.beforeWrite) == 0 {
		return nil
	}
	hook := s.beforeWrite[0]
	s.beforeWrite = s.beforeWrite[1:]
	return hook
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub == nil || !CheckTenantFilter(ctx, sub.TenantID) {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok {
		return true
	}

	if len(f.SubscriptionIDs) > 0 && !lo.Contains(f.SubscriptionIDs, sub.ID) {
		return false
	}
	if f.CustomerID != "" && sub.CustomerID != f.CustomerID {
		return false
	}
	if f.PlanID != "" && sub.PlanID != f.PlanID {
		return false
	}
	if len(f.SubscriptionStatus) > 0 && !lo.Contains(f.SubscriptionStatus, sub.Status) {
		return false
	}

	return true
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID < j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func cloneSubscription(sub *subscription.Subscription) *subscription.Subscription {
	cp := *sub
	if sub.UsageRecords != nil {
		cp.UsageRecords = make(types.UsageQuantities, len(sub.UsageRecords))
		for k, v := range sub.UsageRecords {
			cp.UsageRecords[k] = v
		}
	}
	cp.Metadata = sub.Metadata.Clone()
	return &cp
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, cloneSubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, sub.TenantID) {
		return nil, subscription.NewNotFoundError(id)
	}
	return cloneSubscription(sub), nil
}

// Update writes sub only if the stored version equals sub.Version, then
// advances both to the next version
func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").Mark(ierr.ErrValidation)
	}

	if hook := s.nextHook(); hook != nil {
		stored, err := s.InMemoryStore.Get(ctx, sub.ID)
		if err == nil {
			cp := cloneSubscription(stored)
			if err := hook(cp); err != nil {
				return err
			}
			_ = s.InMemoryStore.Update(ctx, sub.ID, cp)
		}
	}

	next := cloneSubscription(sub)
	next.Version = sub.Version + 1
	err := s.InMemoryStore.CompareAndSwap(ctx, sub.ID, next, func(stored *subscription.Subscription) error {
		if !CheckTenantFilter(ctx, stored.TenantID) {
			return subscription.NewNotFoundError(sub.ID)
		}
		if stored.Version != sub.Version {
			return subscription.NewVersionConflictError(sub.ID, sub.Version)
		}
		return nil
	})
	if err != nil {
		if ierr.IsNotFound(err) {
			return subscription.NewNotFoundError(sub.ID)
		}
		return err
	}

	sub.Version++
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return cloneSubscription(sub)
	}), nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}
