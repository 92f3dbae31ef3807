package service

import (
	"context"
	"time"

	"github.com/ispbilling/ispbilling/internal/api/dto"
	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/proration"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)
	ChangePlan(ctx context.Context, id string, req dto.ChangePlanRequest) (*dto.ChangePlanResponse, error)
	CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*dto.SubscriptionResponse, error)
	ReactivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	PauseSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	RecordUsage(ctx context.Context, id string, req dto.RecordUsageRequest) (*dto.SubscriptionResponse, error)
	ListEvents(ctx context.Context, id string, filter *types.SubscriptionEventFilter) (*dto.ListSubscriptionEventsResponse, error)
	GetOverage(ctx context.Context, id string) (*dto.OverageResponse, error)
}

type subscriptionService struct {
	ServiceParams
	chain    *Chain
	recorder EventRecorder
}

func NewSubscriptionService(params ServiceParams, recorder EventRecorder) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		chain:         NewDefaultChain(params, "subscription"),
		recorder:      recorder,
	}
}

// pendingEvent is emitted once the mutation that produced it has committed
type pendingEvent struct {
	eventType types.SubscriptionEventType
	data      types.EventData
}

// mutation applies a lifecycle transition to sub in place. It must check its
// preconditions against sub, which is freshly loaded on every attempt.
type mutation func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error)

// mutate loads the subscription, applies fn and writes it back under the
// version guard in one transaction. Conflicts re-run the whole attempt through
// the retry interceptor. Events are recorded after the final commit only.
func (s *subscriptionService) mutate(ctx context.Context, op, id string, fn mutation) (*subscription.Subscription, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}

	var events []pendingEvent
	sub, err := Execute(ctx, s.chain, op, func(ctx context.Context) (*subscription.Subscription, error) {
		events = nil
		var result *subscription.Subscription
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			sub, err := s.SubRepo.Get(ctx, id)
			if err != nil {
				return err
			}

			now := s.Clock.Now().UTC()
			pending, err := fn(ctx, sub, now)
			if err != nil {
				return err
			}

			sub.Touch(ctx, now)
			if err := sub.Validate(); err != nil {
				return err
			}
			if err := s.SubRepo.Update(ctx, sub); err != nil {
				return err
			}

			events = pending
			result = sub
			return nil
		})
		return result, err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, sub.ID, events)
	return sub, nil
}

func (s *subscriptionService) emit(ctx context.Context, subscriptionID string, events []pendingEvent) {
	userID := types.GetUserID(ctx)
	for _, e := range events {
		s.recorder.RecordEvent(ctx, subscriptionID, e.eventType, e.data, userID)
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := Execute(ctx, s.chain, "CreateSubscription", func(ctx context.Context) (*subscription.Subscription, error) {
		var created *subscription.Subscription
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			p, err := s.PlanRepo.Get(ctx, req.PlanID)
			if err != nil {
				return err
			}
			if !p.Active {
				return plan.NewInactiveError(p.ID)
			}

			sub, err := s.newSubscription(ctx, req, p, s.Clock.Now().UTC())
			if err != nil {
				return err
			}
			if err := s.SubRepo.Create(ctx, sub); err != nil {
				return err
			}
			created = sub
			return nil
		})
		return created, err
	})
	if err != nil {
		return nil, err
	}

	events := []pendingEvent{{
		eventType: types.SubscriptionEventCreated,
		data: types.EventData{
			"plan_id":              sub.PlanID,
			"customer_id":          sub.CustomerID,
			"status":               sub.Status,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
		},
	}}
	if sub.Status == types.SubscriptionStatusTrialing {
		events = append(events, pendingEvent{
			eventType: types.SubscriptionEventTrialStarted,
			data:      types.EventData{"trial_end": sub.TrialEnd},
		})
	}
	s.emit(ctx, sub.ID, events)

	s.Logger.WithContext(ctx).Infow("subscription created",
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
		"customer_id", sub.CustomerID,
		"status", sub.Status,
	)

	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// newSubscription derives the first period and the trial from the plan. An
// explicit trial end wins over the plan trial; one that is not after the
// start suppresses the trial.
func (s *subscriptionService) newSubscription(ctx context.Context, req dto.CreateSubscriptionRequest, p *plan.Plan, now time.Time) (*subscription.Subscription, error) {
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}

	periodEnd, err := types.NextBillingDate(start, p.BillingCycle)
	if err != nil {
		return nil, err
	}

	var trialEnd *time.Time
	switch {
	case req.TrialEnd != nil:
		if req.TrialEnd.After(start) {
			trialEnd = lo.ToPtr(req.TrialEnd.UTC())
		}
	case p.HasTrial():
		trialEnd = lo.ToPtr(start.AddDate(0, 0, p.GetTrialDays()))
	}

	status := types.SubscriptionStatusActive
	if trialEnd != nil {
		status = types.SubscriptionStatusTrialing
	}

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID:         req.CustomerID,
		PlanID:             p.ID,
		Status:             status,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   periodEnd,
		TrialEnd:           trialEnd,
		CustomPrice:        req.CustomPrice,
		UsageRecords:       types.UsageQuantities{},
		Metadata:           req.Metadata,
		Version:            1,
		BaseModel:          types.GetDefaultBaseModel(ctx, now),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}

	sub, err := Execute(ctx, s.chain, "GetSubscription", func(ctx context.Context) (*subscription.Subscription, error) {
		return s.SubRepo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	type page struct {
		subs  []*subscription.Subscription
		total int
	}
	result, err := Execute(ctx, s.chain, "ListSubscriptions", func(ctx context.Context) (page, error) {
		subs, err := s.SubRepo.List(ctx, filter)
		if err != nil {
			return page{}, err
		}
		total, err := s.SubRepo.Count(ctx, filter)
		if err != nil {
			return page{}, err
		}
		return page{subs: subs, total: total}, nil
	})
	if err != nil {
		return nil, err
	}

	items := lo.Map(result.subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse {
		return &dto.SubscriptionResponse{Subscription: sub}
	})
	response := types.NewListResponse(items, result.total, filter)
	return &response, nil
}

// ChangePlan moves the subscription to another plan within the current
// period. Period bounds and status are kept; a custom price negotiated for
// the old plan does not carry over.
func (s *subscriptionService) ChangePlan(ctx context.Context, id string, req dto.ChangePlanRequest) (*dto.ChangePlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	behavior := req.ProrationBehavior.OrDefault()

	var result *proration.ProrationResult
	sub, err := s.mutate(ctx, "ChangePlan", id, func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error) {
		result = nil

		if sub.PlanID == req.NewPlanID {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonAlreadyOnPlan)
		}
		if !sub.IsActive() {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonInactive)
		}

		oldPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		newPlan, err := s.PlanRepo.Get(ctx, req.NewPlanID)
		if err != nil {
			return nil, err
		}
		if !newPlan.Active {
			return nil, plan.NewInactiveError(newPlan.ID)
		}
		if err := proration.CheckCompatible(oldPlan, newPlan); err != nil {
			return nil, err
		}

		if behavior == types.ProrationBehaviorCreateProrations {
			result, err = proration.Calculate(sub, oldPlan, newPlan, now)
			if err != nil {
				return nil, err
			}
		}

		sub.PlanID = newPlan.ID
		sub.CustomPrice = nil

		data := types.EventData{
			"old_plan_id":        oldPlan.ID,
			"new_plan_id":        newPlan.ID,
			"proration_behavior": behavior,
		}
		if result != nil {
			data["proration_amount"] = result.ProrationAmount.String()
			data["proration_description"] = result.Description
			data["days_remaining"] = result.DaysRemaining
			data["currency"] = result.Currency
		}
		return []pendingEvent{{eventType: types.SubscriptionEventPlanChanged, data: data}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("subscription plan changed",
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
		"proration_behavior", behavior,
	)

	return &dto.ChangePlanResponse{
		Subscription: &dto.SubscriptionResponse{Subscription: sub},
		Proration:    result,
	}, nil
}

// CancelSubscription either schedules the cancellation for the end of the
// period or ends the subscription immediately.
func (s *subscriptionService) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*dto.SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, "CancelSubscription", id, func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error) {
		if !sub.IsActive() {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonNotActive)
		}

		sub.CanceledAt = lo.ToPtr(now)
		if atPeriodEnd {
			sub.Status = types.SubscriptionStatusCanceled
			sub.CancelAtPeriodEnd = true
			return []pendingEvent{{
				eventType: types.SubscriptionEventCanceled,
				data: types.EventData{
					"at_period_end": true,
					"cancel_at":     sub.CurrentPeriodEnd,
				},
			}}, nil
		}

		sub.Status = types.SubscriptionStatusEnded
		sub.EndedAt = lo.ToPtr(now)
		return []pendingEvent{
			{eventType: types.SubscriptionEventCanceled, data: types.EventData{"at_period_end": false}},
			{eventType: types.SubscriptionEventEnded, data: types.EventData{"ended_at": now}},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("subscription canceled",
		"subscription_id", sub.ID,
		"at_period_end", atPeriodEnd,
		"status", sub.Status,
	)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// ReactivateSubscription undoes a cancel-at-period-end while the paid period
// is still running.
func (s *subscriptionService) ReactivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, "ReactivateSubscription", id, func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error) {
		if sub.Status != types.SubscriptionStatusCanceled {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonOnlyCanceledReactivate)
		}
		if !now.Before(sub.CurrentPeriodEnd) {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonReactivateAfterEnd)
		}
		if !sub.CanReactivate(now) {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonNotCancelAtPeriodEnd)
		}

		sub.Status = types.SubscriptionStatusActive
		sub.CancelAtPeriodEnd = false
		sub.CanceledAt = nil
		return []pendingEvent{{
			eventType: types.SubscriptionEventResumed,
			data:      types.EventData{"reactivated": true},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("subscription reactivated", "subscription_id", sub.ID)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) PauseSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, "PauseSubscription", id, func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error) {
		if sub.Status != types.SubscriptionStatusActive {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonOnlyActivePause)
		}
		sub.Status = types.SubscriptionStatusPaused
		return []pendingEvent{{eventType: types.SubscriptionEventPaused, data: types.EventData{"paused_at": now}}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, "ResumeSubscription", id, func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error) {
		if sub.Status != types.SubscriptionStatusPaused {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonOnlyPausedResume)
		}
		sub.Status = types.SubscriptionStatusActive
		return []pendingEvent{{eventType: types.SubscriptionEventResumed, data: types.EventData{"resumed_at": now}}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// RecordUsage accumulates metered usage on an active subscription
func (s *subscriptionService) RecordUsage(ctx context.Context, id string, req dto.RecordUsageRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.mutate(ctx, "RecordUsage", id, func(ctx context.Context, sub *subscription.Subscription, now time.Time) ([]pendingEvent, error) {
		if !sub.IsActive() {
			return nil, subscription.NewInvalidStateError(sub.ID, sub.Status, subscription.ReasonNotActive)
		}
		sub.UsageRecords = sub.UsageRecords.Add(req.UsageType, req.Quantity)
		return []pendingEvent{{
			eventType: types.SubscriptionEventUsageRecorded,
			data: types.EventData{
				"usage_type": req.UsageType,
				"quantity":   req.Quantity.String(),
				"total":      sub.UsageRecords.Get(req.UsageType).String(),
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// ListEvents returns a page of the audit trail of a subscription, oldest
// first. A nil filter returns the whole trail.
func (s *subscriptionService) ListEvents(ctx context.Context, id string, filter *types.SubscriptionEventFilter) (*dto.ListSubscriptionEventsResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewSubscriptionEventFilter(id)
	}
	filter.SubscriptionID = id
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	type page struct {
		events []*subscriptionevent.SubscriptionEvent
		total  int
	}
	result, err := Execute(ctx, s.chain, "ListEvents", func(ctx context.Context) (page, error) {
		if _, err := s.SubRepo.Get(ctx, id); err != nil {
			return page{}, err
		}
		events, err := s.SubscriptionEventRepo.List(ctx, filter)
		if err != nil {
			return page{}, err
		}
		total, err := s.SubscriptionEventRepo.Count(ctx, filter)
		if err != nil {
			return page{}, err
		}
		return page{events: events, total: total}, nil
	})
	if err != nil {
		return nil, err
	}

	items := lo.Map(result.events, func(e *subscriptionevent.SubscriptionEvent, _ int) *dto.SubscriptionEventResponse {
		return &dto.SubscriptionEventResponse{SubscriptionEvent: e}
	})
	response := types.NewListResponse(items, result.total, filter)
	return &response, nil
}

// GetOverage prices the usage recorded so far beyond the plan allowance
func (s *subscriptionService) GetOverage(ctx context.Context, id string) (*dto.OverageResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}

	result, err := Execute(ctx, s.chain, "GetOverage", func(ctx context.Context) (*proration.OverageResult, error) {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		p, err := s.PlanRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		return proration.CalculateOverage(sub, p), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.OverageResponse{OverageResult: result}, nil
}
