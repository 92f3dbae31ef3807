package subscription

import (
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
)

// NewNotFoundError reports a subscription missing for the current tenant
func NewNotFoundError(id string) error {
	return ierr.NewError("subscription not found").
		WithHint("Subscription not found").
		WithReportableDetails(map[string]any{
			"subscription_id": id,
		}).
		Mark(ierr.ErrNotFound)
}

// NewVersionConflictError reports that another writer updated the row first
func NewVersionConflictError(id string, expectedVersion int) error {
	return ierr.NewError("subscription version conflict").
		WithHint("Subscription was modified concurrently, please retry").
		WithReportableDetails(map[string]any{
			"subscription_id":  id,
			"expected_version": expectedVersion,
		}).
		Mark(ierr.ErrVersionConflict)
}

// NewInvalidStateError reports a lifecycle precondition violation with a
// reason that can be shown to the end user as is
func NewInvalidStateError(id string, status types.SubscriptionStatus, reason string) error {
	return ierr.NewError("subscription precondition failed").
		WithHint(reason).
		WithReportableDetails(map[string]any{
			"subscription_id": id,
			"status":          status,
		}).
		Mark(ierr.ErrInvalidOperation)
}

const (
	ReasonAlreadyOnPlan          = "Subscription is already on the requested plan"
	ReasonInactive               = "Subscription is inactive"
	ReasonNotActive              = "Subscription is not active"
	ReasonOnlyCanceledReactivate = "Only canceled subscriptions can be reactivated"
	ReasonReactivateAfterEnd     = "Cannot reactivate subscription after period end"
	ReasonNotCancelAtPeriodEnd   = "Only subscriptions canceled at period end can be reactivated"
	ReasonOnlyActivePause        = "Only active subscriptions can be paused"
	ReasonOnlyPausedResume       = "Only paused subscriptions can be resumed"
)
