package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProrationParams holds all necessary input for calculating a plan change proration.
type ProrationParams struct {
	SubscriptionID     string    // ID of the subscription
	CurrentPeriodStart time.Time // Start of the current billing period
	CurrentPeriodEnd   time.Time // End of the current billing period

	OldPlanID string
	NewPlanID string

	// OldPrice is what the customer pays for the whole period today, custom
	// price override included
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal

	ProrationDate time.Time // Cutover instant
	Currency      string    // Currency code of both plans
}

// ProrationResult holds the output of a proration calculation. It is derived
// once and never mutated.
type ProrationResult struct {
	// ProrationAmount is positive when the customer owes money and negative
	// when the customer is credited. It always equals
	// NewPlanProratedAmount - OldPlanUnusedAmount.
	ProrationAmount       decimal.Decimal `json:"proration_amount"`
	Description           string          `json:"proration_description"`
	OldPlanUnusedAmount   decimal.Decimal `json:"old_plan_unused_amount"`
	NewPlanProratedAmount decimal.Decimal `json:"new_plan_prorated_amount"`
	DaysRemaining         int             `json:"days_remaining"`

	RemainingFraction decimal.Decimal `json:"remaining_fraction"`
	Currency          string          `json:"currency"`
	ProrationDate     time.Time       `json:"proration_date"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
}

// IsCharge reports whether the customer owes money
func (r *ProrationResult) IsCharge() bool {
	return r.ProrationAmount.IsPositive()
}

// IsCredit reports whether the customer receives a credit
func (r *ProrationResult) IsCredit() bool {
	return r.ProrationAmount.IsNegative()
}
