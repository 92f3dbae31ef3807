package types

import (
	"database/sql/driver"
	"encoding/json"
	"maps"
	"strings"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// UsageType identifies a metered resource. Known keys cover the usual ISP
// meters; anything else must be declared with the custom: prefix.
type UsageType string

const (
	UsageTypeDataTransferGB UsageType = "data_transfer_gb"
	UsageTypeBandwidthMbps  UsageType = "bandwidth_mbps"
	UsageTypeStaticIP       UsageType = "static_ip"
	UsageTypeVoiceMinutes   UsageType = "voice_minutes"
	UsageTypeSMS            UsageType = "sms"
	UsageTypeAPICalls       UsageType = "api_calls"

	customUsagePrefix = "custom:"
)

var KnownUsageTypes = []UsageType{
	UsageTypeDataTransferGB,
	UsageTypeBandwidthMbps,
	UsageTypeStaticIP,
	UsageTypeVoiceMinutes,
	UsageTypeSMS,
	UsageTypeAPICalls,
}

// NewCustomUsageType returns custom:<name>
func NewCustomUsageType(name string) UsageType {
	return UsageType(customUsagePrefix + strings.TrimSpace(name))
}

func (u UsageType) String() string {
	return string(u)
}

// IsCustom reports whether u uses the custom escape hatch
func (u UsageType) IsCustom() bool {
	return strings.HasPrefix(string(u), customUsagePrefix)
}

func (u UsageType) Validate() error {
	if lo.Contains(KnownUsageTypes, u) {
		return nil
	}
	if u.IsCustom() && len(strings.TrimSpace(strings.TrimPrefix(string(u), customUsagePrefix))) > 0 {
		return nil
	}
	return ierr.NewError("invalid usage type").
		WithHintf("Unknown usage type %q, use one of the known types or the custom: prefix", string(u)).
		WithReportableDetails(map[string]any{
			"usage_type":     u,
			"allowed_values": KnownUsageTypes,
		}).
		Mark(ierr.ErrValidation)
}

// UsageQuantities maps a usage type to a quantity (included allowance or accumulated usage)
type UsageQuantities map[UsageType]decimal.Decimal

// UsageRates maps a usage type to the per-unit overage price
type UsageRates map[UsageType]decimal.Decimal

// Clone returns a copy that can be mutated independently, nil stays nil
func (r UsageRates) Clone() UsageRates {
	return maps.Clone(r)
}

// Validate checks keys and rejects negative quantities
func (q UsageQuantities) Validate() error {
	return validateUsageMap(map[UsageType]decimal.Decimal(q), "quantity")
}

// Get returns the quantity for u or zero
func (q UsageQuantities) Get(u UsageType) decimal.Decimal {
	if v, ok := q[u]; ok {
		return v
	}
	return decimal.Zero
}

// Clone returns a copy that can be mutated independently, nil stays nil
func (q UsageQuantities) Clone() UsageQuantities {
	return maps.Clone(q)
}

// Add returns a copy with delta accumulated into u
func (q UsageQuantities) Add(u UsageType, delta decimal.Decimal) UsageQuantities {
	out := make(UsageQuantities, len(q)+1)
	for k, v := range q {
		out[k] = v
	}
	out[u] = out.Get(u).Add(delta)
	return out
}

func (q *UsageQuantities) Scan(value interface{}) error {
	result := make(UsageQuantities)
	if value == nil {
		*q = result
		return nil
	}
	if err := scanJSONB(value, &result); err != nil {
		return err
	}
	*q = result
	return nil
}

func (q UsageQuantities) Value() (driver.Value, error) {
	if q == nil {
		return json.Marshal(make(UsageQuantities))
	}
	return json.Marshal(q)
}

// Validate checks keys and rejects negative rates
func (r UsageRates) Validate() error {
	return validateUsageMap(map[UsageType]decimal.Decimal(r), "rate")
}

// Get returns the rate for u or zero
func (r UsageRates) Get(u UsageType) decimal.Decimal {
	if v, ok := r[u]; ok {
		return v
	}
	return decimal.Zero
}

func (r *UsageRates) Scan(value interface{}) error {
	result := make(UsageRates)
	if value == nil {
		*r = result
		return nil
	}
	if err := scanJSONB(value, &result); err != nil {
		return err
	}
	*r = result
	return nil
}

func (r UsageRates) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal(make(UsageRates))
	}
	return json.Marshal(r)
}

func validateUsageMap(m map[UsageType]decimal.Decimal, field string) error {
	for k, v := range m {
		if err := k.Validate(); err != nil {
			return err
		}
		if v.IsNegative() {
			return ierr.NewErrorf("negative usage %s", field).
				WithHintf("Usage %s for %s cannot be negative", field, string(k)).
				WithReportableDetails(map[string]any{
					"usage_type": k,
					field:        v.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
