package types

import (
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/samber/lo"
)

// BillingCycle is the recurring interval that defines a subscription period
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "MONTHLY"
	BillingCycleQuarterly BillingCycle = "QUARTERLY"
	BillingCycleAnnual    BillingCycle = "ANNUAL"
)

var BillingCycleValues = []BillingCycle{
	BillingCycleMonthly,
	BillingCycleQuarterly,
	BillingCycleAnnual,
}

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) Validate() error {
	if !lo.Contains(BillingCycleValues, b) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Billing cycle must be MONTHLY, QUARTERLY or ANNUAL").
			WithReportableDetails(map[string]any{
				"allowed_values": BillingCycleValues,
				"provided_value": b,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Months returns the number of calendar months in one cycle
func (b BillingCycle) Months() int {
	switch b {
	case BillingCycleQuarterly:
		return 3
	case BillingCycleAnnual:
		return 12
	default:
		return 1
	}
}
