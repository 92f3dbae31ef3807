package dto

import (
	"context"
	"strings"
	"time"

	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/ispbilling/ispbilling/internal/validator"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	ProductID     string                `json:"product_id"`
	Name          string                `json:"name" validate:"required"`
	Description   string                `json:"description"`
	BillingCycle  types.BillingCycle    `json:"billing_cycle" validate:"required,billing_cycle"`
	Price         decimal.Decimal       `json:"price"`
	Currency      string                `json:"currency" validate:"omitempty,currency"`
	SetupFee      *decimal.Decimal      `json:"setup_fee,omitempty"`
	TrialDays     *int                  `json:"trial_days,omitempty" validate:"omitempty,min=0,max=365"`
	IncludedUsage types.UsageQuantities `json:"included_usage,omitempty"`
	OverageRates  types.UsageRates      `json:"overage_rates,omitempty"`
	Metadata      types.Metadata        `json:"metadata,omitempty"`
}

func (r *CreatePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToPlan builds an active plan owned by the tenant in ctx. Currency falls back
// to defaultCurrency when the request leaves it empty.
func (r *CreatePlanRequest) ToPlan(ctx context.Context, defaultCurrency string, now time.Time) *plan.Plan {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return &plan.Plan{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		ProductID:     r.ProductID,
		Name:          r.Name,
		Description:   r.Description,
		BillingCycle:  r.BillingCycle,
		Price:         r.Price,
		Currency:      strings.ToUpper(currency),
		SetupFee:      r.SetupFee,
		TrialDays:     r.TrialDays,
		IncludedUsage: r.IncludedUsage,
		OverageRates:  r.OverageRates,
		Active:        true,
		Metadata:      r.Metadata,
		BaseModel:     types.GetDefaultBaseModel(ctx, now),
	}
}

type PlanResponse struct {
	*plan.Plan
}

type ListPlansResponse = types.ListResponse[*PlanResponse]
