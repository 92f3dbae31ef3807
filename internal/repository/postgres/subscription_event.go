package postgres

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

type subscriptionEventRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionEventRepository(db postgres.IClient, logger *logger.Logger) subscriptionevent.Repository {
	return &subscriptionEventRepository{db: db, logger: logger}
}

func (r *subscriptionEventRepository) Create(ctx context.Context, event *subscriptionevent.SubscriptionEvent) error {
	query := `
		INSERT INTO subscription_events (
			id, tenant_id, subscription_id, event_type, event_data, user_id, created_at
		) VALUES (
			:id, :tenant_id, :subscription_id, :event_type, :event_data, :user_id, :created_at
		)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, event); err != nil {
		return postgres.ClassifyError(err, "create_subscription_event")
	}
	return nil
}

func (r *subscriptionEventRepository) List(ctx context.Context, filter *types.SubscriptionEventFilter) ([]*subscriptionevent.SubscriptionEvent, error) {
	where := r.applyFilter(ctx, filter)
	query := `SELECT id, tenant_id, subscription_id, event_type, event_data, user_id, created_at
		FROM subscription_events` + where.String() + where.paginate("created_at ASC, id ASC", filter)

	events := make([]*subscriptionevent.SubscriptionEvent, 0)
	if err := r.db.Querier(ctx).SelectContext(ctx, &events, query, where.args...); err != nil {
		return nil, postgres.ClassifyError(err, "list_subscription_events")
	}
	return events, nil
}

func (r *subscriptionEventRepository) Count(ctx context.Context, filter *types.SubscriptionEventFilter) (int, error) {
	where := r.applyFilter(ctx, filter)
	var count int
	if err := r.db.Querier(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM subscription_events"+where.String(), where.args...); err != nil {
		return 0, postgres.ClassifyError(err, "count_subscription_events")
	}
	return count, nil
}

func (r *subscriptionEventRepository) applyFilter(ctx context.Context, filter *types.SubscriptionEventFilter) *whereBuilder {
	where := newWhere(types.GetTenantID(ctx)).eq("subscription_id", filter.SubscriptionID)
	if len(filter.EventTypes) > 0 {
		where.in("event_type", lo.Map(filter.EventTypes, func(t types.SubscriptionEventType, _ int) string {
			return string(t)
		}))
	}
	return where
}
