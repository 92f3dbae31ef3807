package proration

import (
	"testing"

	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateOverage(t *testing.T) {
	p := testPlan("plan_a", "30.00")
	p.IncludedUsage = types.UsageQuantities{
		types.UsageTypeDataTransferGB: d("100"),
		types.UsageTypeVoiceMinutes:   d("500"),
	}
	p.OverageRates = types.UsageRates{
		types.UsageTypeDataTransferGB: d("0.125"),
		types.UsageTypeSMS:            d("0.05"),
	}

	sub := testSubscription("plan_a")
	sub.UsageRecords = types.UsageQuantities{
		types.UsageTypeDataTransferGB: d("150.5"),
		types.UsageTypeVoiceMinutes:   d("200"),
		types.UsageTypeSMS:            d("31"),
	}

	result := CalculateOverage(sub, p)
	require.Len(t, result.Lines, 3)

	// ordered by usage type
	assert.Equal(t, types.UsageTypeDataTransferGB, result.Lines[0].UsageType)
	assert.Equal(t, types.UsageTypeSMS, result.Lines[1].UsageType)
	assert.Equal(t, types.UsageTypeVoiceMinutes, result.Lines[2].UsageType)

	// 50.5 GB over at 0.125 = 6.3125
	assertDecimal(t, "50.5", result.Lines[0].Billable, "billable")
	assertDecimal(t, "6.31", result.Lines[0].Amount, "amount")
	// nothing included, 31 at 0.05
	assertDecimal(t, "1.55", result.Lines[1].Amount, "amount")
	// under allowance
	assertDecimal(t, "0", result.Lines[2].Billable, "billable")
	assertDecimal(t, "0", result.Lines[2].Amount, "amount")

	assertDecimal(t, "7.86", result.Total, "total")
	assert.Equal(t, "USD", result.Currency)
}

func TestCalculateOverage_NoUsage(t *testing.T) {
	result := CalculateOverage(testSubscription("plan_a"), testPlan("plan_a", "30.00"))
	assert.Empty(t, result.Lines)
	assert.True(t, result.Total.IsZero())
}
