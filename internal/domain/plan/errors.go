package plan

import (
	ierr "github.com/ispbilling/ispbilling/internal/errors"
)

// NewNotFoundError reports a plan missing for the current tenant
func NewNotFoundError(id string) error {
	return ierr.NewError("plan not found").
		WithHint("Plan not found").
		WithReportableDetails(map[string]any{
			"plan_id": id,
		}).
		Mark(ierr.ErrNotFound)
}

// NewInactiveError reports a plan that no longer accepts subscriptions
func NewInactiveError(id string) error {
	return ierr.NewError("plan is not active").
		WithHint("Plan is not active").
		WithReportableDetails(map[string]any{
			"plan_id": id,
		}).
		Mark(ierr.ErrInvalidOperation)
}
