package proration

import (
	"fmt"
	"time"

	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/shopspring/decimal"
)

const fractionPrecision = 16

var nanosPerDay = decimal.NewFromInt(int64(24 * time.Hour))

// Calculator computes plan change prorations. Implementations are pure.
type Calculator interface {
	Calculate(params ProrationParams) (*ProrationResult, error)
}

// NewCalculator returns the time based calculator. The period is measured in
// elapsed time rather than calendar days so that every instant of the period
// is worth the same amount.
func NewCalculator() Calculator {
	return &timeBasedCalculator{}
}

// CheckCompatible rejects plan changes across currencies
func CheckCompatible(oldPlan, newPlan *plan.Plan) error {
	if oldPlan.Currency != newPlan.Currency {
		return ierr.NewError("plan currency mismatch").
			WithHint("Cannot change to a plan with a different currency").
			WithReportableDetails(map[string]any{
				"old_currency": oldPlan.Currency,
				"new_currency": newPlan.Currency,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Calculate prorates a change of sub from oldPlan to newPlan effective at now
func Calculate(sub *subscription.Subscription, oldPlan, newPlan *plan.Plan, now time.Time) (*ProrationResult, error) {
	if err := CheckCompatible(oldPlan, newPlan); err != nil {
		return nil, err
	}

	return NewCalculator().Calculate(ProrationParams{
		SubscriptionID:     sub.ID,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		OldPlanID:          oldPlan.ID,
		NewPlanID:          newPlan.ID,
		OldPrice:           sub.EffectivePrice(oldPlan.Price),
		NewPrice:           newPlan.Price,
		ProrationDate:      now,
		Currency:           oldPlan.Currency,
	})
}

type timeBasedCalculator struct{}

func (c *timeBasedCalculator) Calculate(params ProrationParams) (*ProrationResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	total := params.CurrentPeriodEnd.Sub(params.CurrentPeriodStart)
	elapsed := params.ProrationDate.Sub(params.CurrentPeriodStart)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	remaining := total - elapsed

	result := &ProrationResult{
		ProrationAmount:       decimal.Zero,
		OldPlanUnusedAmount:   decimal.Zero,
		NewPlanProratedAmount: decimal.Zero,
		RemainingFraction:     decimal.Zero,
		Currency:              params.Currency,
		ProrationDate:         params.ProrationDate,
		PeriodStart:           params.CurrentPeriodStart,
		PeriodEnd:             params.CurrentPeriodEnd,
	}

	if remaining == 0 {
		result.Description = "No proration: plan change takes effect at the end of the period"
		return result, nil
	}

	totalNanos := decimal.NewFromInt(int64(total))
	remainingNanos := decimal.NewFromInt(int64(remaining))

	result.RemainingFraction = remainingNanos.DivRound(totalNanos, fractionPrecision)
	result.DaysRemaining = int(remainingNanos.Div(nanosPerDay).Round(0).IntPart())

	// multiply before dividing so a full period reproduces the price exactly
	result.OldPlanUnusedAmount = types.RoundToCurrencyPrecision(
		params.OldPrice.Mul(remainingNanos).Div(totalNanos), params.Currency)
	result.NewPlanProratedAmount = types.RoundToCurrencyPrecision(
		params.NewPrice.Mul(remainingNanos).Div(totalNanos), params.Currency)
	result.ProrationAmount = result.NewPlanProratedAmount.Sub(result.OldPlanUnusedAmount)
	result.Description = describe(result)

	return result, nil
}

func describe(r *ProrationResult) string {
	label := "Prorated charge for plan change"
	switch {
	case r.ProrationAmount.IsNegative():
		label = "Prorated credit for plan change"
	case r.ProrationAmount.IsZero():
		label = "No prorated amount for plan change"
	}
	return fmt.Sprintf("%s: %s new, %s unused credit",
		label,
		types.FormatAmount(r.NewPlanProratedAmount, r.Currency),
		types.FormatAmount(r.OldPlanUnusedAmount, r.Currency),
	)
}

func validateParams(params ProrationParams) error {
	if params.ProrationDate.IsZero() {
		return ierr.NewError("proration date is required").
			WithHint("Proration date is required").
			Mark(ierr.ErrValidation)
	}
	if !params.CurrentPeriodEnd.After(params.CurrentPeriodStart) {
		return ierr.NewError("invalid billing period").
			WithHintf("Billing period end must be after start (%v to %v)", params.CurrentPeriodStart, params.CurrentPeriodEnd).
			Mark(ierr.ErrValidation)
	}
	if params.OldPrice.IsNegative() || params.NewPrice.IsNegative() {
		return ierr.NewError("negative price").
			WithHint("Plan prices cannot be negative").
			WithReportableDetails(map[string]any{
				"old_price": params.OldPrice.String(),
				"new_price": params.NewPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
