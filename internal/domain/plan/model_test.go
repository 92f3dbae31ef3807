package plan

import (
	"testing"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan() *Plan {
	return &Plan{
		ID:           "plan_1",
		ProductID:    "prod_fiber",
		Name:         "Fiber 100",
		BillingCycle: types.BillingCycleMonthly,
		Price:        decimal.RequireFromString("30.00"),
		Currency:     types.DefaultCurrency,
		Active:       true,
	}
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Plan) {}},
		{name: "free plan", mutate: func(p *Plan) { p.Price = decimal.Zero }},
		{name: "negative price", mutate: func(p *Plan) { p.Price = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "negative setup fee", mutate: func(p *Plan) { p.SetupFee = lo.ToPtr(decimal.NewFromInt(-5)) }, wantErr: true},
		{name: "zero setup fee", mutate: func(p *Plan) { p.SetupFee = lo.ToPtr(decimal.Zero) }},
		{name: "trial upper bound", mutate: func(p *Plan) { p.TrialDays = lo.ToPtr(365) }},
		{name: "trial too long", mutate: func(p *Plan) { p.TrialDays = lo.ToPtr(366) }, wantErr: true},
		{name: "negative trial", mutate: func(p *Plan) { p.TrialDays = lo.ToPtr(-1) }, wantErr: true},
		{name: "unknown cycle", mutate: func(p *Plan) { p.BillingCycle = "WEEKLY" }, wantErr: true},
		{name: "bad currency", mutate: func(p *Plan) { p.Currency = "" }, wantErr: true},
		{name: "missing name", mutate: func(p *Plan) { p.Name = " " }, wantErr: true},
		{
			name: "unknown usage key",
			mutate: func(p *Plan) {
				p.IncludedUsage = types.UsageQuantities{types.UsageType("gigawatts"): decimal.NewFromInt(1)}
			},
			wantErr: true,
		},
		{
			name: "negative overage rate",
			mutate: func(p *Plan) {
				p.OverageRates = types.UsageRates{types.UsageTypeDataTransferGB: decimal.NewFromInt(-1)}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPlan_BusinessQueries(t *testing.T) {
	p := validPlan()
	assert.False(t, p.HasTrial())
	assert.False(t, p.HasSetupFee())
	assert.False(t, p.SupportsUsageBilling())
	assert.Equal(t, 0, p.GetTrialDays())

	p.TrialDays = lo.ToPtr(0)
	assert.False(t, p.HasTrial())
	p.TrialDays = lo.ToPtr(14)
	assert.True(t, p.HasTrial())

	p.SetupFee = lo.ToPtr(decimal.Zero)
	assert.False(t, p.HasSetupFee())
	p.SetupFee = lo.ToPtr(decimal.RequireFromString("49.99"))
	assert.True(t, p.HasSetupFee())

	p.OverageRates = types.UsageRates{types.UsageTypeDataTransferGB: decimal.RequireFromString("0.10")}
	assert.True(t, p.SupportsUsageBilling())
}

func TestPlan_Clone(t *testing.T) {
	p := validPlan()
	p.SetupFee = lo.ToPtr(decimal.NewFromInt(25))
	p.TrialDays = lo.ToPtr(14)
	p.IncludedUsage = types.UsageQuantities{types.UsageTypeDataTransferGB: decimal.NewFromInt(100)}
	p.OverageRates = types.UsageRates{types.UsageTypeDataTransferGB: decimal.RequireFromString("0.50")}
	p.Metadata = types.Metadata{"tier": "residential"}

	cp := p.Clone()
	require.Equal(t, p, cp)

	*cp.SetupFee = decimal.NewFromInt(99)
	*cp.TrialDays = 30
	cp.IncludedUsage[types.UsageTypeDataTransferGB] = decimal.NewFromInt(999999)
	cp.OverageRates[types.UsageTypeDataTransferGB] = decimal.NewFromInt(7)
	cp.Metadata["tier"] = "business"

	assert.True(t, p.SetupFee.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 14, *p.TrialDays)
	assert.True(t, p.IncludedUsage.Get(types.UsageTypeDataTransferGB).Equal(decimal.NewFromInt(100)))
	assert.True(t, p.OverageRates[types.UsageTypeDataTransferGB].Equal(decimal.RequireFromString("0.50")))
	assert.Equal(t, "residential", p.Metadata["tier"])

	bare := validPlan().Clone()
	assert.Nil(t, bare.SetupFee)
	assert.Nil(t, bare.TrialDays)
	assert.Nil(t, bare.IncludedUsage)
	assert.Nil(t, bare.Metadata)

	var nilPlan *Plan
	assert.Nil(t, nilPlan.Clone())
}
