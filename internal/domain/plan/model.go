package plan

import (
	"strings"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MaxTrialDays is the longest trial a plan may offer
const MaxTrialDays = 365

// Plan is a billable offering. Subscriptions reference it by id; price changes
// are made by publishing a new plan, never by editing one in use.
type Plan struct {
	ID           string             `db:"id" json:"id"`
	ProductID    string             `db:"product_id" json:"product_id"`
	Name         string             `db:"name" json:"name"`
	Description  string             `db:"description" json:"description"`
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`
	Price        decimal.Decimal    `db:"price" json:"price"`
	Currency     string             `db:"currency" json:"currency"`

	// SetupFee is charged once at subscription start, nil when the plan has none
	SetupFee *decimal.Decimal `db:"setup_fee" json:"setup_fee,omitempty"`

	// TrialDays is nil when the plan has no trial
	TrialDays *int `db:"trial_days" json:"trial_days,omitempty"`

	IncludedUsage types.UsageQuantities `db:"included_usage" json:"included_usage"`
	OverageRates  types.UsageRates      `db:"overage_rates" json:"overage_rates"`
	Active        bool                  `db:"active" json:"active"`
	Metadata      types.Metadata        `db:"metadata" json:"metadata"`

	types.BaseModel
}

// Validate enforces the plan invariants
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}

	if err := p.BillingCycle.Validate(); err != nil {
		return err
	}

	if p.Price.IsNegative() {
		return ierr.NewError("price must be non-negative").
			WithHint("Plan price cannot be negative").
			WithReportableDetails(map[string]any{
				"price": p.Price.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if !types.IsValidCurrencyCode(p.Currency) {
		return ierr.NewError("invalid currency").
			WithHint("Currency must be a 3-letter ISO code").
			WithReportableDetails(map[string]any{
				"currency": p.Currency,
			}).
			Mark(ierr.ErrValidation)
	}

	if p.SetupFee != nil && p.SetupFee.IsNegative() {
		return ierr.NewError("setup fee must be non-negative").
			WithHint("Setup fee cannot be negative").
			WithReportableDetails(map[string]any{
				"setup_fee": p.SetupFee.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if p.TrialDays != nil && (*p.TrialDays < 0 || *p.TrialDays > MaxTrialDays) {
		return ierr.NewError("trial days out of range").
			WithHintf("Trial days must be between 0 and %d", MaxTrialDays).
			WithReportableDetails(map[string]any{
				"trial_days": *p.TrialDays,
			}).
			Mark(ierr.ErrValidation)
	}

	if err := p.IncludedUsage.Validate(); err != nil {
		return err
	}

	return p.OverageRates.Validate()
}

// HasTrial reports whether subscriptions to the plan start trialing
func (p *Plan) HasTrial() bool {
	return p.TrialDays != nil && *p.TrialDays > 0
}

// HasSetupFee reports whether a positive one-off fee is configured
func (p *Plan) HasSetupFee() bool {
	return p.SetupFee != nil && p.SetupFee.IsPositive()
}

// SupportsUsageBilling reports whether the plan meters anything
func (p *Plan) SupportsUsageBilling() bool {
	return len(p.IncludedUsage) > 0 || len(p.OverageRates) > 0
}

// GetTrialDays returns the trial length, zero when unset
func (p *Plan) GetTrialDays() int {
	if p.TrialDays == nil {
		return 0
	}
	return *p.TrialDays
}

// Clone returns a deep copy sharing no maps or pointers with p
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	cp := *p
	if p.SetupFee != nil {
		cp.SetupFee = lo.ToPtr(*p.SetupFee)
	}
	if p.TrialDays != nil {
		cp.TrialDays = lo.ToPtr(*p.TrialDays)
	}
	cp.IncludedUsage = p.IncludedUsage.Clone()
	cp.OverageRates = p.OverageRates.Clone()
	if p.Metadata != nil {
		cp.Metadata = p.Metadata.Clone()
	}
	return &cp
}
