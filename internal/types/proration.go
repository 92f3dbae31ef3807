package types

import (
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/samber/lo"
)

// ProrationBehavior defines whether a plan change produces a proration.
type ProrationBehavior string

const (
	ProrationBehaviorCreateProrations ProrationBehavior = "create_prorations" // Default
	ProrationBehaviorNone             ProrationBehavior = "none"
)

var ProrationBehaviorValues = []ProrationBehavior{
	ProrationBehaviorCreateProrations,
	ProrationBehaviorNone,
}

func (p ProrationBehavior) String() string {
	return string(p)
}

func (p ProrationBehavior) Validate() error {
	if !lo.Contains(ProrationBehaviorValues, p) {
		return ierr.NewError("invalid proration behavior").
			WithHint("Proration behavior must be one of create_prorations or none").
			WithReportableDetails(map[string]any{
				"proration_behavior": p,
				"allowed_values":     ProrationBehaviorValues,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// OrDefault returns create_prorations when no behavior was requested
func (p ProrationBehavior) OrDefault() ProrationBehavior {
	if p == "" {
		return ProrationBehaviorCreateProrations
	}
	return p
}
