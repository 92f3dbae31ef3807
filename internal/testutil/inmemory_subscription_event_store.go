package testutil

import (
	"context"
	"sync"

	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionEventStore implements subscriptionevent.Repository.
// Events keep insertion order.
type InMemorySubscriptionEventStore struct {
	mu      sync.RWMutex
	events  []*subscriptionevent.SubscriptionEvent
	failErr error
}

func NewInMemorySubscriptionEventStore() *InMemorySubscriptionEventStore {
	return &InMemorySubscriptionEventStore{}
}

// FailWith makes every Create fail with err until reset with nil
func (s *InMemorySubscriptionEventStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *InMemorySubscriptionEventStore) Create(ctx context.Context, event *subscriptionevent.SubscriptionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

func (s *InMemorySubscriptionEventStore) List(ctx context.Context, filter *types.SubscriptionEventFilter) ([]*subscriptionevent.SubscriptionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.matching(ctx, filter)
	if filter == nil {
		return result, nil
	}

	offset := filter.GetOffset()
	if offset >= len(result) {
		return []*subscriptionevent.SubscriptionEvent{}, nil
	}
	end := len(result)
	if !filter.IsUnlimited() {
		end = min(offset+filter.GetLimit(), len(result))
	}
	return result[offset:end], nil
}

func (s *InMemorySubscriptionEventStore) Count(ctx context.Context, filter *types.SubscriptionEventFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(ctx, filter)), nil
}

func (s *InMemorySubscriptionEventStore) matching(ctx context.Context, filter *types.SubscriptionEventFilter) []*subscriptionevent.SubscriptionEvent {
	return lo.Filter(s.events, func(e *subscriptionevent.SubscriptionEvent, _ int) bool {
		if !CheckTenantFilter(ctx, e.TenantID) {
			return false
		}
		if filter == nil {
			return true
		}
		if filter.SubscriptionID != "" && e.SubscriptionID != filter.SubscriptionID {
			return false
		}
		return len(filter.EventTypes) == 0 || lo.Contains(filter.EventTypes, e.EventType)
	})
}

// Types returns the event types recorded for a subscription, in order
func (s *InMemorySubscriptionEventStore) Types(subscriptionID string) []types.SubscriptionEventType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.SubscriptionEventType
	for _, e := range s.events {
		if e.SubscriptionID == subscriptionID {
			out = append(out, e.EventType)
		}
	}
	return out
}

func (s *InMemorySubscriptionEventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.failErr = nil
}
