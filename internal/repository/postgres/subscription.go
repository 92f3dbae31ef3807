package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

const subscriptionColumns = `id, customer_id, plan_id, subscription_status, current_period_start,
	current_period_end, trial_end, cancel_at_period_end, canceled_at, ended_at, custom_price,
	usage_records, metadata, version, tenant_id, created_at, updated_at, created_by, updated_by`

type subscriptionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, customer_id, plan_id, subscription_status, current_period_start,
			current_period_end, trial_end, cancel_at_period_end, canceled_at, ended_at, custom_price,
			usage_records, metadata, version, tenant_id, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :customer_id, :plan_id, :subscription_status, :current_period_start,
			:current_period_end, :trial_end, :cancel_at_period_end, :canceled_at, :ended_at, :custom_price,
			:usage_records, :metadata, :version, :tenant_id, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"plan_id", sub.PlanID,
	)

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		return postgres.ClassifyError(err, "create_subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	where := newWhere(types.GetTenantID(ctx)).eq("id", id)
	query := "SELECT " + subscriptionColumns + " FROM subscriptions" + where.String()

	var sub subscription.Subscription
	if err := r.db.Querier(ctx).GetContext(ctx, &sub, query, where.args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subscription.NewNotFoundError(id)
		}
		return nil, postgres.ClassifyError(err, "get_subscription")
	}
	return &sub, nil
}

// Update writes sub only if nobody else has written it since it was read.
// On success sub.Version is advanced to the stored version.
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		UPDATE subscriptions SET
			plan_id = :plan_id,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			trial_end = :trial_end,
			cancel_at_period_end = :cancel_at_period_end,
			canceled_at = :canceled_at,
			ended_at = :ended_at,
			custom_price = :custom_price,
			usage_records = :usage_records,
			metadata = :metadata,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return postgres.ClassifyError(err, "update_subscription")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.ClassifyError(err, "update_subscription")
	}
	if rows == 0 {
		r.logger.Warnw("subscription version conflict",
			"subscription_id", sub.ID,
			"expected_version", sub.Version,
		)
		return subscription.NewVersionConflictError(sub.ID, sub.Version)
	}

	sub.Version++
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if filter == nil {
		filter = types.NewNoLimitSubscriptionFilter()
	}

	where := r.applyFilter(ctx, filter)
	query := "SELECT " + subscriptionColumns + " FROM subscriptions" + where.String() + where.paginate("created_at DESC, id", filter)

	subs := make([]*subscription.Subscription, 0)
	if err := r.db.Querier(ctx).SelectContext(ctx, &subs, query, where.args...); err != nil {
		return nil, postgres.ClassifyError(err, "list_subscriptions")
	}
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitSubscriptionFilter()
	}

	where := r.applyFilter(ctx, filter)
	var count int
	if err := r.db.Querier(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM subscriptions"+where.String(), where.args...); err != nil {
		return 0, postgres.ClassifyError(err, "count_subscriptions")
	}
	return count, nil
}

func (r *subscriptionRepository) applyFilter(ctx context.Context, filter *types.SubscriptionFilter) *whereBuilder {
	where := newWhere(types.GetTenantID(ctx))
	where.in("id", lo.Uniq(filter.SubscriptionIDs))
	if filter.CustomerID != "" {
		where.eq("customer_id", filter.CustomerID)
	}
	if filter.PlanID != "" {
		where.eq("plan_id", filter.PlanID)
	}
	if len(filter.SubscriptionStatus) > 0 {
		where.in("subscription_status", lo.Map(filter.SubscriptionStatus, func(s types.SubscriptionStatus, _ int) string {
			return string(s)
		}))
	}
	return where
}
