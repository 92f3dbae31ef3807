package service

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/api/dto"
	"github.com/ispbilling/ispbilling/internal/cache"
	"github.com/ispbilling/ispbilling/internal/domain/plan"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error)
	DeactivatePlan(ctx context.Context, id string) (*dto.PlanResponse, error)
}

type planService struct {
	ServiceParams
	chain *Chain
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{
		ServiceParams: params,
		chain:         NewDefaultChain(params, "plan"),
	}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(ctx, s.Config.Billing.DefaultCurrency, s.Clock.Now())
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.chain.Run(ctx, "CreatePlan", func(ctx context.Context) error {
		return s.DB.WithTx(ctx, func(ctx context.Context) error {
			return s.PlanRepo.Create(ctx, p)
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("plan created",
		"plan_id", p.ID,
		"billing_cycle", p.BillingCycle,
		"price", p.Price.String(),
		"currency", p.Currency,
	)

	return &dto.PlanResponse{Plan: p}, nil
}

// GetPlan reads through the plan cache. The cache holds its own deep copy and
// every caller receives another.
func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ierr.NewError("plan_id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixPlan, types.GetTenantID(ctx), id)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if p, ok := cached.(*plan.Plan); ok {
			return &dto.PlanResponse{Plan: p.Clone()}, nil
		}
	}

	p, err := Execute(ctx, s.chain, "GetPlan", func(ctx context.Context) (*plan.Plan, error) {
		return s.PlanRepo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, p.Clone(), 0)
	return &dto.PlanResponse{Plan: p}, nil
}

func (s *planService) ListPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	type page struct {
		plans []*plan.Plan
		total int
	}
	result, err := Execute(ctx, s.chain, "ListPlans", func(ctx context.Context) (page, error) {
		plans, err := s.PlanRepo.List(ctx, filter)
		if err != nil {
			return page{}, err
		}
		total, err := s.PlanRepo.Count(ctx, filter)
		if err != nil {
			return page{}, err
		}
		return page{plans: plans, total: total}, nil
	})
	if err != nil {
		return nil, err
	}

	items := lo.Map(result.plans, func(p *plan.Plan, _ int) *dto.PlanResponse {
		return &dto.PlanResponse{Plan: p}
	})
	response := types.NewListResponse(items, result.total, filter)
	return &response, nil
}

// DeactivatePlan stops the plan from accepting new subscriptions. Existing
// subscriptions keep referencing it.
func (s *planService) DeactivatePlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}

	p, err := Execute(ctx, s.chain, "DeactivatePlan", func(ctx context.Context) (*plan.Plan, error) {
		var updated *plan.Plan
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			p, err := s.PlanRepo.Get(ctx, id)
			if err != nil {
				return err
			}
			if !p.Active {
				updated = p
				return nil
			}
			p.Active = false
			p.Touch(ctx, s.Clock.Now())
			if err := s.PlanRepo.Update(ctx, p); err != nil {
				return err
			}
			updated = p
			return nil
		})
		return updated, err
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, types.GetTenantID(ctx), id))
	s.Logger.WithContext(ctx).Infow("plan deactivated", "plan_id", id)

	return &dto.PlanResponse{Plan: p}, nil
}
