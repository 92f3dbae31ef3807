package types

import (
	"database/sql/driver"
	"encoding/json"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionEventType is the kind of lifecycle transition recorded in the audit log
type SubscriptionEventType string

const (
	SubscriptionEventCreated          SubscriptionEventType = "created"
	SubscriptionEventActivated        SubscriptionEventType = "activated"
	SubscriptionEventTrialStarted     SubscriptionEventType = "trial_started"
	SubscriptionEventTrialEnded       SubscriptionEventType = "trial_ended"
	SubscriptionEventRenewed          SubscriptionEventType = "renewed"
	SubscriptionEventPlanChanged      SubscriptionEventType = "plan_changed"
	SubscriptionEventCanceled         SubscriptionEventType = "canceled"
	SubscriptionEventPaused           SubscriptionEventType = "paused"
	SubscriptionEventResumed          SubscriptionEventType = "resumed"
	SubscriptionEventEnded            SubscriptionEventType = "ended"
	SubscriptionEventPaymentFailed    SubscriptionEventType = "payment_failed"
	SubscriptionEventPaymentSucceeded SubscriptionEventType = "payment_succeeded"
	SubscriptionEventUsageRecorded    SubscriptionEventType = "usage_recorded"
)

var SubscriptionEventTypeValues = []SubscriptionEventType{
	SubscriptionEventCreated,
	SubscriptionEventActivated,
	SubscriptionEventTrialStarted,
	SubscriptionEventTrialEnded,
	SubscriptionEventRenewed,
	SubscriptionEventPlanChanged,
	SubscriptionEventCanceled,
	SubscriptionEventPaused,
	SubscriptionEventResumed,
	SubscriptionEventEnded,
	SubscriptionEventPaymentFailed,
	SubscriptionEventPaymentSucceeded,
	SubscriptionEventUsageRecorded,
}

func (t SubscriptionEventType) String() string {
	return string(t)
}

func (t SubscriptionEventType) Validate() error {
	if !lo.Contains(SubscriptionEventTypeValues, t) {
		return ierr.NewError("invalid subscription event type").
			WithHint("Invalid subscription event type").
			WithReportableDetails(map[string]any{
				"event_type":     t,
				"allowed_values": SubscriptionEventTypeValues,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// EventData is the free-form JSON payload attached to a subscription event
type EventData map[string]any

func (d *EventData) Scan(value interface{}) error {
	result := make(EventData)
	if value == nil {
		*d = result
		return nil
	}
	if err := scanJSONB(value, &result); err != nil {
		return err
	}
	*d = result
	return nil
}

func (d EventData) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal(make(EventData))
	}
	return json.Marshal(d)
}

// SubscriptionEventFilter narrows the audit log of a single subscription
type SubscriptionEventFilter struct {
	*QueryFilter

	SubscriptionID string                  `json:"subscription_id" form:"subscription_id"`
	EventTypes     []SubscriptionEventType `json:"event_types,omitempty" form:"event_types"`
}

func NewSubscriptionEventFilter(subscriptionID string) *SubscriptionEventFilter {
	return &SubscriptionEventFilter{
		QueryFilter:    NewNoLimitQueryFilter(),
		SubscriptionID: subscriptionID,
	}
}

func (f *SubscriptionEventFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, t := range f.EventTypes {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f *SubscriptionEventFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetLimit()
}

func (f *SubscriptionEventFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

func (f *SubscriptionEventFilter) IsUnlimited() bool {
	return f.QueryFilter == nil || f.QueryFilter.IsUnlimited()
}
