package subscription

import (
	"time"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/shopspring/decimal"
)

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// CustomerID is the identifier for the customer in our system
	CustomerID string `db:"customer_id" json:"customer_id"`

	// PlanID is the identifier for the plan in our system
	PlanID string `db:"plan_id" json:"plan_id"`

	// Status is the status of the subscription
	Status types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end" json:"current_period_end"`

	// TrialEnd is the end of the trial, nil when the subscription never trialed
	TrialEnd *time.Time `db:"trial_end" json:"trial_end,omitempty"`

	// CancelAtPeriodEnd is set when the customer canceled but keeps service
	// until CurrentPeriodEnd
	CancelAtPeriodEnd bool       `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CanceledAt        *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`
	EndedAt           *time.Time `db:"ended_at" json:"ended_at,omitempty"`

	// CustomPrice overrides the plan price for this subscription only
	CustomPrice *decimal.Decimal `db:"custom_price" json:"custom_price,omitempty"`

	// UsageRecords accumulates metered usage for the current period
	UsageRecords types.UsageQuantities `db:"usage_records" json:"usage_records"`

	Metadata types.Metadata `db:"metadata" json:"metadata"`

	// Version increases by one on every successful update and guards
	// concurrent writers with a compare-and-swap
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// IsActive reports whether the subscription is serving for business purposes
func (s *Subscription) IsActive() bool {
	return s.Status == types.SubscriptionStatusActive || s.Status == types.SubscriptionStatusTrialing
}

// IsInTrial reports whether the trial is still running at now, regardless of status
func (s *Subscription) IsInTrial(now time.Time) bool {
	return s.TrialEnd != nil && s.TrialEnd.After(now)
}

// CanReactivate holds only for a cancel-at-period-end subscription whose paid
// period has not elapsed. Immediate cancellation ends the subscription instead
// of canceling it, so it can never satisfy this.
func (s *Subscription) CanReactivate(now time.Time) bool {
	return s.Status == types.SubscriptionStatusCanceled &&
		s.CancelAtPeriodEnd &&
		now.Before(s.CurrentPeriodEnd)
}

// EffectivePrice returns the custom price when set, otherwise planPrice
func (s *Subscription) EffectivePrice(planPrice decimal.Decimal) decimal.Decimal {
	if s.CustomPrice != nil {
		return *s.CustomPrice
	}
	return planPrice
}

// Validate enforces the subscription invariants
func (s *Subscription) Validate() error {
	if s.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Customer ID is required").
			Mark(ierr.ErrValidation)
	}

	if s.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}

	if err := s.Status.Validate(); err != nil {
		return err
	}

	if !s.CurrentPeriodEnd.After(s.CurrentPeriodStart) {
		return ierr.NewError("current period end must be after current period start").
			WithHint("Subscription period end must be after its start").
			WithReportableDetails(map[string]any{
				"current_period_start": s.CurrentPeriodStart,
				"current_period_end":   s.CurrentPeriodEnd,
			}).
			Mark(ierr.ErrValidation)
	}

	if s.IsActive() && s.EndedAt != nil {
		return ierr.NewError("active subscription cannot have ended_at").
			WithHint("An active subscription cannot be ended").
			WithReportableDetails(map[string]any{
				"status": s.Status,
			}).
			Mark(ierr.ErrValidation)
	}

	if s.CancelAtPeriodEnd && s.Status != types.SubscriptionStatusCanceled && s.Status != types.SubscriptionStatusEnded {
		return ierr.NewError("cancel_at_period_end requires canceled status").
			WithHint("A subscription scheduled to cancel must be canceled").
			WithReportableDetails(map[string]any{
				"status": s.Status,
			}).
			Mark(ierr.ErrValidation)
	}

	if s.CustomPrice != nil && s.CustomPrice.IsNegative() {
		return ierr.NewError("custom price must be non-negative").
			WithHint("Custom price cannot be negative").
			WithReportableDetails(map[string]any{
				"custom_price": s.CustomPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return s.UsageRecords.Validate()
}
