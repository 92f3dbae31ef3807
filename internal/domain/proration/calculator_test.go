package proration

import (
	"testing"
	"time"

	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	periodStart = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC) // 30 days
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPlan(id, price string) *plan.Plan {
	return &plan.Plan{
		ID:           id,
		Name:         id,
		BillingCycle: types.BillingCycleMonthly,
		Price:        d(price),
		Currency:     "USD",
		Active:       true,
	}
}

func testSubscription(planID string) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                 "subs_1",
		CustomerID:         "cust_1",
		PlanID:             planID,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func TestCalculate(t *testing.T) {
	planA := testPlan("plan_a", "30.00")
	planB := testPlan("plan_b", "50.00")
	day15 := periodStart.Add(15 * 24 * time.Hour)

	tests := []struct {
		name          string
		sub           *subscription.Subscription
		oldPlan       *plan.Plan
		newPlan       *plan.Plan
		now           time.Time
		wantUnused    string
		wantProrated  string
		wantAmount    string
		wantDays      int
		wantFraction  string
		wantDescStart string
	}{
		{
			name:          "upgrade at half period",
			sub:           testSubscription("plan_a"),
			oldPlan:       planA,
			newPlan:       planB,
			now:           day15,
			wantUnused:    "15.00",
			wantProrated:  "25.00",
			wantAmount:    "10.00",
			wantDays:      15,
			wantFraction:  "0.5",
			wantDescStart: "Prorated charge for plan change: $25.00 new, $15.00 unused credit",
		},
		{
			name:          "downgrade at half period",
			sub:           testSubscription("plan_b"),
			oldPlan:       planB,
			newPlan:       planA,
			now:           day15,
			wantUnused:    "25.00",
			wantProrated:  "15.00",
			wantAmount:    "-10.00",
			wantDays:      15,
			wantFraction:  "0.5",
			wantDescStart: "Prorated credit for plan change: $15.00 new, $25.00 unused credit",
		},
		{
			name:         "change at exact period start",
			sub:          testSubscription("plan_a"),
			oldPlan:      planA,
			newPlan:      planB,
			now:          periodStart,
			wantUnused:   "30.00",
			wantProrated: "50.00",
			wantAmount:   "20.00",
			wantDays:     30,
			wantFraction: "1",
		},
		{
			name:         "change before period start clamps to full period",
			sub:          testSubscription("plan_a"),
			oldPlan:      planA,
			newPlan:      planB,
			now:          periodStart.Add(-time.Hour),
			wantUnused:   "30.00",
			wantProrated: "50.00",
			wantAmount:   "20.00",
			wantDays:     30,
			wantFraction: "1",
		},
		{
			name:         "change at exact period end",
			sub:          testSubscription("plan_a"),
			oldPlan:      planA,
			newPlan:      planB,
			now:          periodEnd,
			wantUnused:   "0",
			wantProrated: "0",
			wantAmount:   "0",
			wantDays:     0,
			wantFraction: "0",
		},
		{
			name:         "change after period end is a no-op",
			sub:          testSubscription("plan_a"),
			oldPlan:      planA,
			newPlan:      planB,
			now:          periodEnd.Add(48 * time.Hour),
			wantUnused:   "0",
			wantProrated: "0",
			wantAmount:   "0",
			wantDays:     0,
			wantFraction: "0",
		},
		{
			name: "custom price replaces old plan price",
			sub: func() *subscription.Subscription {
				s := testSubscription("plan_a")
				s.CustomPrice = lo.ToPtr(d("20.00"))
				return s
			}(),
			oldPlan:      planA,
			newPlan:      planB,
			now:          day15,
			wantUnused:   "10.00",
			wantProrated: "25.00",
			wantAmount:   "15.00",
			wantDays:     15,
			wantFraction: "0.5",
		},
		{
			name:         "equal prices prorate to zero",
			sub:          testSubscription("plan_a"),
			oldPlan:      planA,
			newPlan:      testPlan("plan_a2", "30.00"),
			now:          periodStart.Add(7 * 24 * time.Hour),
			wantUnused:   "23.00",
			wantProrated: "23.00",
			wantAmount:   "0",
			wantDays:     23,
			wantFraction: "0.7666666666666667",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Calculate(tt.sub, tt.oldPlan, tt.newPlan, tt.now)
			require.NoError(t, err)
			require.NotNil(t, result)

			assertDecimal(t, tt.wantUnused, result.OldPlanUnusedAmount, "old_plan_unused_amount")
			assertDecimal(t, tt.wantProrated, result.NewPlanProratedAmount, "new_plan_prorated_amount")
			assertDecimal(t, tt.wantAmount, result.ProrationAmount, "proration_amount")
			assertDecimal(t, tt.wantFraction, result.RemainingFraction, "remaining_fraction")
			assert.Equal(t, tt.wantDays, result.DaysRemaining)
			assert.Equal(t, "USD", result.Currency)
			assert.True(t, tt.now.Equal(result.ProrationDate))
			if tt.wantDescStart != "" {
				assert.Equal(t, tt.wantDescStart, result.Description)
			}
		})
	}
}

func TestCalculate_AmountIdentityAndSign(t *testing.T) {
	prices := []string{"0", "9.99", "30.00", "45.00", "50.00", "129.49"}
	offsets := []time.Duration{
		time.Minute,
		7*time.Hour + 13*time.Minute,
		3 * 24 * time.Hour,
		11*24*time.Hour + 17*time.Second,
		29*24*time.Hour + 23*time.Hour,
	}

	for _, oldPrice := range prices {
		for _, newPrice := range prices {
			for _, offset := range offsets {
				oldPlan := testPlan("plan_old", oldPrice)
				newPlan := testPlan("plan_new", newPrice)

				result, err := Calculate(testSubscription("plan_old"), oldPlan, newPlan, periodStart.Add(offset))
				require.NoError(t, err)

				assert.True(t,
					result.ProrationAmount.Equal(result.NewPlanProratedAmount.Sub(result.OldPlanUnusedAmount)),
					"identity broken for %s -> %s at %s", oldPrice, newPrice, offset)

				switch d(newPrice).Cmp(d(oldPrice)) {
				case 1:
					assert.True(t, result.ProrationAmount.IsPositive(), "upgrade %s -> %s at %s", oldPrice, newPrice, offset)
				case -1:
					assert.True(t, result.ProrationAmount.IsNegative(), "downgrade %s -> %s at %s", oldPrice, newPrice, offset)
				default:
					assert.True(t, result.ProrationAmount.IsZero())
				}
			}
		}
	}
}

func TestCalculate_MirrorAtSameInstant(t *testing.T) {
	planA := testPlan("plan_a", "30.00")
	planB := testPlan("plan_b", "50.00")
	now := periodStart.Add(9*24*time.Hour + 5*time.Hour)

	up, err := Calculate(testSubscription("plan_a"), planA, planB, now)
	require.NoError(t, err)
	down, err := Calculate(testSubscription("plan_b"), planB, planA, now)
	require.NoError(t, err)

	assert.True(t, up.ProrationAmount.Equal(down.ProrationAmount.Neg()))
}

func TestCalculate_ZeroDecimalCurrency(t *testing.T) {
	oldPlan := testPlan("plan_old", "3000")
	newPlan := testPlan("plan_new", "5000")
	oldPlan.Currency = "JPY"
	newPlan.Currency = "JPY"

	result, err := Calculate(testSubscription("plan_old"), oldPlan, newPlan, periodStart.Add(10*24*time.Hour))
	require.NoError(t, err)

	// 20 of 30 days remain
	assertDecimal(t, "2000", result.OldPlanUnusedAmount, "old_plan_unused_amount")
	assertDecimal(t, "3333", result.NewPlanProratedAmount, "new_plan_prorated_amount")
	assertDecimal(t, "1333", result.ProrationAmount, "proration_amount")
}

func TestCalculate_Errors(t *testing.T) {
	planA := testPlan("plan_a", "30.00")
	planEUR := testPlan("plan_eur", "30.00")
	planEUR.Currency = "EUR"

	_, err := Calculate(testSubscription("plan_a"), planA, planEUR, periodStart)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	broken := testSubscription("plan_a")
	broken.CurrentPeriodEnd = broken.CurrentPeriodStart
	_, err = Calculate(broken, planA, testPlan("plan_b", "50"), periodStart)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = NewCalculator().Calculate(ProrationParams{
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		OldPrice:           d("10"),
		NewPrice:           d("20"),
		Currency:           "USD",
	})
	assert.Error(t, err, "missing proration date")
}
