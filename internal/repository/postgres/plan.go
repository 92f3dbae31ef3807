package postgres

import (
	"context"
	"database/sql"
	"errors"

	domainPlan "github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

const planColumns = `id, product_id, name, description, billing_cycle, price, currency, setup_fee,
	trial_days, included_usage, overage_rates, active, metadata,
	tenant_id, created_at, updated_at, created_by, updated_by`

type planRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(db postgres.IClient, logger *logger.Logger) domainPlan.Repository {
	return &planRepository{db: db, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *domainPlan.Plan) error {
	query := `
		INSERT INTO plans (
			id, product_id, name, description, billing_cycle, price, currency, setup_fee,
			trial_days, included_usage, overage_rates, active, metadata,
			tenant_id, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :product_id, :name, :description, :billing_cycle, :price, :currency, :setup_fee,
			:trial_days, :included_usage, :overage_rates, :active, :metadata,
			:tenant_id, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating plan", "plan_id", p.ID, "tenant_id", p.TenantID)

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return postgres.ClassifyError(err, "create_plan")
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*domainPlan.Plan, error) {
	where := newWhere(types.GetTenantID(ctx)).eq("id", id)
	query := "SELECT " + planColumns + " FROM plans" + where.String()

	var p domainPlan.Plan
	if err := r.db.Querier(ctx).GetContext(ctx, &p, query, where.args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainPlan.NewNotFoundError(id)
		}
		return nil, postgres.ClassifyError(err, "get_plan")
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*domainPlan.Plan, error) {
	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}

	where := r.applyFilter(ctx, filter)
	query := "SELECT " + planColumns + " FROM plans" + where.String() + where.paginate("created_at DESC, id", filter)

	plans := make([]*domainPlan.Plan, 0)
	if err := r.db.Querier(ctx).SelectContext(ctx, &plans, query, where.args...); err != nil {
		return nil, postgres.ClassifyError(err, "list_plans")
	}
	return plans, nil
}

func (r *planRepository) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}

	where := r.applyFilter(ctx, filter)
	var count int
	if err := r.db.Querier(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM plans"+where.String(), where.args...); err != nil {
		return 0, postgres.ClassifyError(err, "count_plans")
	}
	return count, nil
}

func (r *planRepository) Update(ctx context.Context, p *domainPlan.Plan) error {
	query := `
		UPDATE plans SET
			name = :name,
			description = :description,
			active = :active,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		return postgres.ClassifyError(err, "update_plan")
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domainPlan.NewNotFoundError(p.ID)
	}
	return nil
}

func (r *planRepository) applyFilter(ctx context.Context, filter *types.PlanFilter) *whereBuilder {
	where := newWhere(types.GetTenantID(ctx))
	where.in("id", lo.Uniq(filter.PlanIDs))
	if filter.ProductID != "" {
		where.eq("product_id", filter.ProductID)
	}
	if filter.BillingCycle != "" {
		where.eq("billing_cycle", filter.BillingCycle)
	}
	if filter.ActiveOnly {
		where.raw("active = TRUE")
	}
	return where
}
