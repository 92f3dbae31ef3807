package dto

import (
	"time"

	"github.com/ispbilling/ispbilling/internal/domain/proration"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/ispbilling/ispbilling/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	PlanID     string `json:"plan_id" validate:"required"`

	// StartDate defaults to now
	StartDate *time.Time `json:"start_date,omitempty"`

	// TrialEnd overrides the plan trial. A value not after the start date
	// suppresses the trial entirely.
	TrialEnd *time.Time `json:"trial_end,omitempty"`

	CustomPrice *decimal.Decimal `json:"custom_price,omitempty"`
	Metadata    types.Metadata   `json:"metadata,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.CustomPrice != nil && r.CustomPrice.IsNegative() {
		return ierr.NewError("custom price must be non-negative").
			WithHint("Custom price cannot be negative").
			WithReportableDetails(map[string]any{
				"custom_price": r.CustomPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type ChangePlanRequest struct {
	NewPlanID         string                  `json:"new_plan_id" validate:"required"`
	ProrationBehavior types.ProrationBehavior `json:"proration_behavior,omitempty"`
}

func (r *ChangePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.ProrationBehavior == "" {
		return nil
	}
	return r.ProrationBehavior.Validate()
}

type CancelSubscriptionRequest struct {
	// AtPeriodEnd keeps service until the current period ends. Defaults to
	// true; only an explicit false ends the subscription immediately.
	AtPeriodEnd *bool `json:"at_period_end,omitempty"`
}

// CancelAtPeriodEnd resolves the cancel mode, defaulting to the period end
func (r *CancelSubscriptionRequest) CancelAtPeriodEnd() bool {
	return lo.FromPtrOr(r.AtPeriodEnd, true)
}

type RecordUsageRequest struct {
	UsageType types.UsageType `json:"usage_type" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (r *RecordUsageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.UsageType.Validate(); err != nil {
		return err
	}
	if !r.Quantity.IsPositive() {
		return ierr.NewError("quantity must be positive").
			WithHint("Usage quantity must be greater than zero").
			WithReportableDetails(map[string]any{
				"quantity": r.Quantity.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

type ChangePlanResponse struct {
	Subscription *SubscriptionResponse      `json:"subscription"`
	Proration    *proration.ProrationResult `json:"proration,omitempty"`
}

type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]

type SubscriptionEventResponse struct {
	*subscriptionevent.SubscriptionEvent
}

type ListSubscriptionEventsResponse = types.ListResponse[*SubscriptionEventResponse]

type OverageResponse struct {
	*proration.OverageResult
}
