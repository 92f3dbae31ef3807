package proration

import (
	"slices"

	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// OverageLine is the usage charge for a single usage type
type OverageLine struct {
	UsageType types.UsageType `json:"usage_type"`
	Used      decimal.Decimal `json:"used"`
	Included  decimal.Decimal `json:"included"`
	Billable  decimal.Decimal `json:"billable"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

// OverageResult sums the usage charges of a subscription for its period
type OverageResult struct {
	SubscriptionID string          `json:"subscription_id"`
	Currency       string          `json:"currency"`
	Lines          []OverageLine   `json:"lines"`
	Total          decimal.Decimal `json:"total"`
}

// CalculateOverage charges max(0, used - included) x rate for every usage
// type the subscription consumed. Types without a rate are free beyond the
// allowance. Lines are ordered by usage type.
func CalculateOverage(sub *subscription.Subscription, p *plan.Plan) *OverageResult {
	result := &OverageResult{
		SubscriptionID: sub.ID,
		Currency:       p.Currency,
		Lines:          []OverageLine{},
		Total:          decimal.Zero,
	}

	usageTypes := lo.Keys(map[types.UsageType]decimal.Decimal(sub.UsageRecords))
	slices.Sort(usageTypes)

	for _, usageType := range usageTypes {
		used := sub.UsageRecords.Get(usageType)
		included := p.IncludedUsage.Get(usageType)
		rate := p.OverageRates.Get(usageType)

		billable := used.Sub(included)
		if billable.IsNegative() {
			billable = decimal.Zero
		}
		amount := types.RoundToCurrencyPrecision(billable.Mul(rate), p.Currency)

		result.Lines = append(result.Lines, OverageLine{
			UsageType: usageType,
			Used:      used,
			Included:  included,
			Billable:  billable,
			Rate:      rate,
			Amount:    amount,
		})
		result.Total = result.Total.Add(amount)
	}

	return result
}
