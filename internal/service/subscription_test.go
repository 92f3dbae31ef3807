package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ispbilling/ispbilling/internal/api/dto"
	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/testutil"
	"github.com/ispbilling/ispbilling/internal/types"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionService
	testData struct {
		plans struct {
			basic   *plan.Plan
			premium *plan.Plan
			trial   *plan.Plan
			metered *plan.Plan
			euro    *plan.Plan
		}
		periodStart time.Time
	}
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSubscriptionService(s.params(), NewEventRecorder(s.params()))
	s.setupTestData()
}

func (s *SubscriptionServiceSuite) params() ServiceParams {
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetClock(),
		s.GetCache(),
		s.GetMetrics(),
		s.GetSentry(),
		s.GetStores().PlanRepo,
		s.GetStores().SubscriptionRepo,
		s.GetStores().SubscriptionEventRepo,
		s.GetPubSub(),
	)
}

func (s *SubscriptionServiceSuite) newPlan(name, price string, mutate ...func(p *plan.Plan)) *plan.Plan {
	p := &plan.Plan{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:          name,
		BillingCycle:  types.BillingCycleMonthly,
		Price:         decimal.RequireFromString(price),
		Currency:      "USD",
		Active:        true,
		IncludedUsage: types.UsageQuantities{},
		OverageRates:  types.UsageRates{},
		BaseModel:     types.GetDefaultBaseModel(s.GetContext(), s.GetNow()),
	}
	for _, fn := range mutate {
		fn(p)
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	return p
}

func (s *SubscriptionServiceSuite) setupTestData() {
	s.testData.periodStart = s.GetNow()
	s.testData.plans.basic = s.newPlan("Basic 50Mbps", "30.00")
	s.testData.plans.premium = s.newPlan("Premium 200Mbps", "50.00")
	s.testData.plans.trial = s.newPlan("Fiber Trial", "40.00", func(p *plan.Plan) {
		p.TrialDays = lo.ToPtr(14)
	})
	s.testData.plans.metered = s.newPlan("Metered", "20.00", func(p *plan.Plan) {
		p.IncludedUsage = types.UsageQuantities{types.UsageTypeDataTransferGB: decimal.NewFromInt(100)}
		p.OverageRates = types.UsageRates{types.UsageTypeDataTransferGB: decimal.RequireFromString("0.50")}
	})
	s.testData.plans.euro = s.newPlan("Euro", "45.00", func(p *plan.Plan) {
		p.Currency = "EUR"
	})
}

func (s *SubscriptionServiceSuite) subscribe(p *plan.Plan) *subscription.Subscription {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: "cust_1",
		PlanID:     p.ID,
	})
	s.Require().NoError(err)
	return resp.Subscription
}

func (s *SubscriptionServiceSuite) advanceDays(days int) {
	s.GetClock().Add(time.Duration(days) * 24 * time.Hour)
}

func (s *SubscriptionServiceSuite) events(subID string) []types.SubscriptionEventType {
	return s.GetStores().SubscriptionEventRepo.(*testutil.InMemorySubscriptionEventStore).Types(subID)
}

func (s *SubscriptionServiceSuite) assertReason(err error, reason string) {
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err), "expected invalid operation, got %v", err)
	s.Equal(reason, ierr.NewErrorResponse(err).Error.Display)
}

func (s *SubscriptionServiceSuite) assertAmount(want string, got decimal.Decimal) {
	s.True(decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	sub := s.subscribe(s.testData.plans.basic)

	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.Equal(types.DefaultTenantID, sub.TenantID)
	s.True(sub.CurrentPeriodStart.Equal(s.testData.periodStart))
	s.True(sub.CurrentPeriodEnd.Equal(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)))
	s.Nil(sub.TrialEnd)
	s.Equal(1, sub.Version)
	s.Equal([]types.SubscriptionEventType{types.SubscriptionEventCreated}, s.events(sub.ID))

	stored, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(sub.ID, stored.ID)
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_TrialFromPlan() {
	sub := s.subscribe(s.testData.plans.trial)

	s.Equal(types.SubscriptionStatusTrialing, sub.Status)
	s.Require().NotNil(sub.TrialEnd)
	s.True(sub.TrialEnd.Equal(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
	s.True(sub.IsInTrial(s.GetNow()))
	s.Equal([]types.SubscriptionEventType{
		types.SubscriptionEventCreated,
		types.SubscriptionEventTrialStarted,
	}, s.events(sub.ID))
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_TrialOverride() {
	start := s.GetNow()
	tests := []struct {
		name       string
		trialEnd   time.Time
		wantStatus types.SubscriptionStatus
		wantTrial  bool
	}{
		{"override after start extends trial", start.Add(3 * 24 * time.Hour), types.SubscriptionStatusTrialing, true},
		{"override at start suppresses trial", start, types.SubscriptionStatusActive, false},
		{"override before start suppresses trial", start.Add(-time.Hour), types.SubscriptionStatusActive, false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
				CustomerID: "cust_1",
				PlanID:     s.testData.plans.trial.ID,
				TrialEnd:   lo.ToPtr(tt.trialEnd),
			})
			s.Require().NoError(err)
			s.Equal(tt.wantStatus, resp.Status)
			if tt.wantTrial {
				s.Require().NotNil(resp.TrialEnd)
				s.True(resp.TrialEnd.Equal(tt.trialEnd))
			} else {
				s.Nil(resp.TrialEnd)
			}
		})
	}
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_MonthEndStart() {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: "cust_1",
		PlanID:     s.testData.plans.basic.ID,
		StartDate:  lo.ToPtr(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)),
	})
	s.Require().NoError(err)
	s.True(resp.CurrentPeriodEnd.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)))
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_Errors() {
	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_missing",
	})
	s.True(ierr.IsNotFound(err))
	s.Equal("Plan not found", ierr.NewErrorResponse(err).Error.Display)

	_, err = s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID: s.testData.plans.basic.ID,
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:  "cust_1",
		PlanID:      s.testData.plans.basic.ID,
		CustomPrice: lo.ToPtr(decimal.NewFromInt(-1)),
	})
	s.True(ierr.IsValidation(err))

	inactive := s.newPlan("Retired", "10.00", func(p *plan.Plan) { p.Active = false })
	_, err = s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: "cust_1",
		PlanID:     inactive.ID,
	})
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.CreateSubscription(context.Background(), dto.CreateSubscriptionRequest{
		CustomerID: "cust_1",
		PlanID:     s.testData.plans.basic.ID,
	})
	s.Error(err)
}

func (s *SubscriptionServiceSuite) TestChangePlan_UpgradeMidPeriod() {
	sub := s.subscribe(s.testData.plans.basic)
	s.advanceDays(15)

	resp, err := s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{
		NewPlanID: s.testData.plans.premium.ID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Proration)

	s.assertAmount("10.00", resp.Proration.ProrationAmount)
	s.assertAmount("25.00", resp.Proration.NewPlanProratedAmount)
	s.assertAmount("15.00", resp.Proration.OldPlanUnusedAmount)
	s.Equal(15, resp.Proration.DaysRemaining)
	s.Equal("Prorated charge for plan change: $25.00 new, $15.00 unused credit", resp.Proration.Description)

	s.Equal(s.testData.plans.premium.ID, resp.Subscription.PlanID)
	s.Equal(types.SubscriptionStatusActive, resp.Subscription.Status)
	s.True(resp.Subscription.CurrentPeriodStart.Equal(sub.CurrentPeriodStart))
	s.True(resp.Subscription.CurrentPeriodEnd.Equal(sub.CurrentPeriodEnd))
	s.Equal(sub.Version+1, resp.Subscription.Version)

	s.Equal([]types.SubscriptionEventType{
		types.SubscriptionEventCreated,
		types.SubscriptionEventPlanChanged,
	}, s.events(sub.ID))
}

func (s *SubscriptionServiceSuite) TestChangePlan_DowngradeMidPeriod() {
	sub := s.subscribe(s.testData.plans.premium)
	s.advanceDays(15)

	resp, err := s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{
		NewPlanID: s.testData.plans.basic.ID,
	})
	s.Require().NoError(err)
	s.assertAmount("-10.00", resp.Proration.ProrationAmount)
	s.True(resp.Proration.IsCredit())
	s.Equal("Prorated credit for plan change: $15.00 new, $25.00 unused credit", resp.Proration.Description)
}

func (s *SubscriptionServiceSuite) TestChangePlan_NoProration() {
	sub := s.subscribe(s.testData.plans.basic)
	s.advanceDays(10)

	resp, err := s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{
		NewPlanID:         s.testData.plans.premium.ID,
		ProrationBehavior: types.ProrationBehaviorNone,
	})
	s.Require().NoError(err)
	s.Nil(resp.Proration)
	s.Equal(s.testData.plans.premium.ID, resp.Subscription.PlanID)
}

func (s *SubscriptionServiceSuite) TestChangePlan_CustomPriceProratedAndCleared() {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:  "cust_1",
		PlanID:      s.testData.plans.basic.ID,
		CustomPrice: lo.ToPtr(decimal.RequireFromString("20.00")),
	})
	s.Require().NoError(err)
	s.advanceDays(15)

	changed, err := s.service.ChangePlan(s.GetContext(), resp.ID, dto.ChangePlanRequest{
		NewPlanID: s.testData.plans.premium.ID,
	})
	s.Require().NoError(err)
	s.assertAmount("10.00", changed.Proration.OldPlanUnusedAmount)
	s.assertAmount("15.00", changed.Proration.ProrationAmount)
	s.Nil(changed.Subscription.CustomPrice)
}

func (s *SubscriptionServiceSuite) TestChangePlan_Preconditions() {
	sub := s.subscribe(s.testData.plans.basic)

	_, err := s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{NewPlanID: s.testData.plans.basic.ID})
	s.assertReason(err, subscription.ReasonAlreadyOnPlan)

	_, err = s.service.ChangePlan(s.GetContext(), "subs_missing", dto.ChangePlanRequest{NewPlanID: s.testData.plans.basic.ID})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{NewPlanID: "plan_missing"})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{NewPlanID: s.testData.plans.euro.ID})
	s.True(ierr.IsValidation(err))

	_, err = s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{
		NewPlanID:         s.testData.plans.premium.ID,
		ProrationBehavior: types.ProrationBehavior("always"),
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CancelSubscription(s.GetContext(), sub.ID, false)
	s.Require().NoError(err)

	// same plan is checked before activity
	_, err = s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{NewPlanID: s.testData.plans.basic.ID})
	s.assertReason(err, subscription.ReasonAlreadyOnPlan)

	_, err = s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{NewPlanID: s.testData.plans.premium.ID})
	s.assertReason(err, subscription.ReasonInactive)

	stored, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(s.testData.plans.basic.ID, stored.PlanID)
}

func (s *SubscriptionServiceSuite) TestChangePlan_RetriesVersionConflict() {
	sub := s.subscribe(s.testData.plans.basic)
	s.advanceDays(15)

	store := s.GetStores().SubscriptionRepo.(*testutil.InMemorySubscriptionStore)
	store.OnNextUpdate(func(stored *subscription.Subscription) error {
		stored.Version++
		return nil
	})

	resp, err := s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{
		NewPlanID: s.testData.plans.premium.ID,
	})
	s.Require().NoError(err)
	s.Equal(sub.Version+2, resp.Subscription.Version)
	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().ServiceRetries.WithLabelValues("subscription", "ChangePlan")))

	// the event is recorded once, for the committed attempt only
	s.Equal([]types.SubscriptionEventType{
		types.SubscriptionEventCreated,
		types.SubscriptionEventPlanChanged,
	}, s.events(sub.ID))
}

func (s *SubscriptionServiceSuite) TestChangePlan_ConflictRetriesExhausted() {
	sub := s.subscribe(s.testData.plans.basic)

	store := s.GetStores().SubscriptionRepo.(*testutil.InMemorySubscriptionStore)
	for i := 0; i <= int(s.GetConfig().Retry.MaxRetries); i++ {
		store.OnNextUpdate(func(stored *subscription.Subscription) error {
			stored.Version++
			return nil
		})
	}

	_, err := s.service.ChangePlan(s.GetContext(), sub.ID, dto.ChangePlanRequest{
		NewPlanID: s.testData.plans.premium.ID,
	})
	s.True(ierr.IsVersionConflict(err))
	s.Equal([]types.SubscriptionEventType{types.SubscriptionEventCreated}, s.events(sub.ID))
}

func (s *SubscriptionServiceSuite) TestCancelSubscription_Immediate() {
	sub := s.subscribe(s.testData.plans.basic)
	s.advanceDays(5)

	resp, err := s.service.CancelSubscription(s.GetContext(), sub.ID, false)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusEnded, resp.Status)
	s.Require().NotNil(resp.EndedAt)
	s.Require().NotNil(resp.CanceledAt)
	s.True(resp.EndedAt.Equal(s.GetNow()))
	s.False(resp.CancelAtPeriodEnd)
	s.False(resp.CanReactivate(s.GetNow()))

	s.Equal([]types.SubscriptionEventType{
		types.SubscriptionEventCreated,
		types.SubscriptionEventCanceled,
		types.SubscriptionEventEnded,
	}, s.events(sub.ID))

	_, err = s.service.ReactivateSubscription(s.GetContext(), sub.ID)
	s.assertReason(err, subscription.ReasonOnlyCanceledReactivate)
}

func (s *SubscriptionServiceSuite) TestCancelSubscription_AtPeriodEndThenReactivate() {
	sub := s.subscribe(s.testData.plans.basic)
	s.advanceDays(10)

	canceled, err := s.service.CancelSubscription(s.GetContext(), sub.ID, true)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, canceled.Status)
	s.True(canceled.CancelAtPeriodEnd)
	s.NotNil(canceled.CanceledAt)
	s.Nil(canceled.EndedAt)
	s.True(canceled.CanReactivate(s.GetNow()))

	s.advanceDays(10)
	resp, err := s.service.ReactivateSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.Status)
	s.False(resp.CancelAtPeriodEnd)
	s.Nil(resp.CanceledAt)

	s.Equal([]types.SubscriptionEventType{
		types.SubscriptionEventCreated,
		types.SubscriptionEventCanceled,
		types.SubscriptionEventResumed,
	}, s.events(sub.ID))
}

func (s *SubscriptionServiceSuite) TestReactivateSubscription_AfterPeriodEnd() {
	sub := s.subscribe(s.testData.plans.basic)
	_, err := s.service.CancelSubscription(s.GetContext(), sub.ID, true)
	s.Require().NoError(err)

	s.advanceDays(31)
	_, err = s.service.ReactivateSubscription(s.GetContext(), sub.ID)
	s.assertReason(err, subscription.ReasonReactivateAfterEnd)

	stored, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, stored.Status)
}

func (s *SubscriptionServiceSuite) TestReactivateSubscription_ActiveFails() {
	sub := s.subscribe(s.testData.plans.basic)
	_, err := s.service.ReactivateSubscription(s.GetContext(), sub.ID)
	s.assertReason(err, subscription.ReasonOnlyCanceledReactivate)
}

func (s *SubscriptionServiceSuite) TestCancelSubscription_Twice() {
	sub := s.subscribe(s.testData.plans.basic)

	_, err := s.service.CancelSubscription(s.GetContext(), sub.ID, true)
	s.Require().NoError(err)

	_, err = s.service.CancelSubscription(s.GetContext(), sub.ID, true)
	s.assertReason(err, subscription.ReasonNotActive)

	_, err = s.service.CancelSubscription(s.GetContext(), sub.ID, false)
	s.assertReason(err, subscription.ReasonNotActive)
}

func (s *SubscriptionServiceSuite) TestCancelSubscription_Trialing() {
	sub := s.subscribe(s.testData.plans.trial)
	resp, err := s.service.CancelSubscription(s.GetContext(), sub.ID, true)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, resp.Status)
}

func (s *SubscriptionServiceSuite) TestPauseResume() {
	sub := s.subscribe(s.testData.plans.basic)

	paused, err := s.service.PauseSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusPaused, paused.Status)
	s.False(paused.IsActive())

	_, err = s.service.PauseSubscription(s.GetContext(), sub.ID)
	s.assertReason(err, subscription.ReasonOnlyActivePause)

	_, err = s.service.RecordUsage(s.GetContext(), sub.ID, dto.RecordUsageRequest{
		UsageType: types.UsageTypeSMS,
		Quantity:  decimal.NewFromInt(1),
	})
	s.assertReason(err, subscription.ReasonNotActive)

	resumed, err := s.service.ResumeSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, resumed.Status)

	_, err = s.service.ResumeSubscription(s.GetContext(), sub.ID)
	s.assertReason(err, subscription.ReasonOnlyPausedResume)

	trialing := s.subscribe(s.testData.plans.trial)
	_, err = s.service.PauseSubscription(s.GetContext(), trialing.ID)
	s.assertReason(err, subscription.ReasonOnlyActivePause)
}

func (s *SubscriptionServiceSuite) TestRecordUsageAndOverage() {
	sub := s.subscribe(s.testData.plans.metered)

	for _, qty := range []string{"70", "50.5"} {
		_, err := s.service.RecordUsage(s.GetContext(), sub.ID, dto.RecordUsageRequest{
			UsageType: types.UsageTypeDataTransferGB,
			Quantity:  decimal.RequireFromString(qty),
		})
		s.Require().NoError(err)
	}

	stored, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.assertAmount("120.5", stored.UsageRecords.Get(types.UsageTypeDataTransferGB))

	overage, err := s.service.GetOverage(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.assertAmount("10.25", overage.Total)
	s.Require().Len(overage.Lines, 1)
	s.assertAmount("20.5", overage.Lines[0].Billable)

	_, err = s.service.RecordUsage(s.GetContext(), sub.ID, dto.RecordUsageRequest{
		UsageType: types.UsageTypeSMS,
		Quantity:  decimal.Zero,
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.RecordUsage(s.GetContext(), sub.ID, dto.RecordUsageRequest{
		UsageType: types.UsageType("carrier_pigeons"),
		Quantity:  decimal.NewFromInt(1),
	})
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestListSubscriptions() {
	a := s.subscribe(s.testData.plans.basic)
	s.subscribe(s.testData.plans.premium)
	_, err := s.service.CancelSubscription(s.GetContext(), a.ID, false)
	s.Require().NoError(err)

	filter := types.NewSubscriptionFilter()
	filter.PlanID = s.testData.plans.premium.ID
	resp, err := s.service.ListSubscriptions(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Len(resp.Items, 1)
	s.Equal(1, resp.Pagination.Total)

	filter = types.NewSubscriptionFilter()
	filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusEnded}
	resp, err = s.service.ListSubscriptions(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(a.ID, resp.Items[0].ID)
}

func (s *SubscriptionServiceSuite) TestTenantIsolation() {
	sub := s.subscribe(s.testData.plans.basic)
	other := types.SetTenantID(s.GetContext(), "tenant_other")

	_, err := s.service.GetSubscription(other, sub.ID)
	s.True(ierr.IsNotFound(err))

	_, err = s.service.CancelSubscription(other, sub.ID, false)
	s.True(ierr.IsNotFound(err))

	resp, err := s.service.ListSubscriptions(other, nil)
	s.Require().NoError(err)
	s.Empty(resp.Items)
}

func (s *SubscriptionServiceSuite) TestEventFailuresAreSuppressed() {
	s.GetStores().SubscriptionEventRepo.(*testutil.InMemorySubscriptionEventStore).FailWith(errors.New("events table unavailable"))

	sub := s.subscribe(s.testData.plans.basic)
	resp, err := s.service.CancelSubscription(s.GetContext(), sub.ID, false)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusEnded, resp.Status)
	s.Empty(s.events(sub.ID))
	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().EventRecordingFailures.WithLabelValues("ended", "persist")))

	s.GetStores().SubscriptionEventRepo.(*testutil.InMemorySubscriptionEventStore).FailWith(nil)
	s.GetPubSub().FailWith(errors.New("broker down"))

	sub = s.subscribe(s.testData.plans.basic)
	s.Equal([]types.SubscriptionEventType{types.SubscriptionEventCreated}, s.events(sub.ID))
	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().EventRecordingFailures.WithLabelValues("created", "publish")))
}

func (s *SubscriptionServiceSuite) TestEventsArePublished() {
	sub := s.subscribe(s.testData.plans.trial)

	msgs := s.GetPubSub().Messages(s.GetConfig().Events.Topic)
	s.Require().Len(msgs, 2)
	s.Equal(sub.ID, msgs[0].Metadata.Get("subscription_id"))
	s.Equal(types.DefaultTenantID, msgs[0].Metadata.Get("tenant_id"))
	s.Equal(string(types.SubscriptionEventTrialStarted), msgs[1].Metadata.Get("event_type"))

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(msgs[0].Payload, &payload))
	s.Equal(string(types.SubscriptionEventCreated), payload["event_type"])
	s.Equal(types.DefaultUserID, payload["user_id"])

	events, err := s.service.ListEvents(s.GetContext(), sub.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(events.Items, 2)
	s.Equal(msgs[0].UUID, events.Items[0].ID)

	_, err = s.service.ListEvents(s.GetContext(), "subs_missing", nil)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestListEvents_Pagination() {
	sub := s.subscribe(s.testData.plans.basic)
	_, err := s.service.PauseSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	_, err = s.service.ResumeSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	_, err = s.service.CancelSubscription(s.GetContext(), sub.ID, false)
	s.Require().NoError(err)

	// another subscription's trail must not leak into the count
	s.subscribe(s.testData.plans.premium)

	tests := []struct {
		name       string
		filter     *types.SubscriptionEventFilter
		wantTypes  []types.SubscriptionEventType
		wantTotal  int
		wantLimit  int
		wantOffset int
	}{
		{
			name:   "whole trail",
			filter: nil,
			wantTypes: []types.SubscriptionEventType{
				types.SubscriptionEventCreated,
				types.SubscriptionEventPaused,
				types.SubscriptionEventResumed,
				types.SubscriptionEventCanceled,
				types.SubscriptionEventEnded,
			},
			wantTotal: 5,
		},
		{
			name: "second page",
			filter: &types.SubscriptionEventFilter{
				QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(2), Offset: lo.ToPtr(2)},
			},
			wantTypes:  []types.SubscriptionEventType{types.SubscriptionEventResumed, types.SubscriptionEventCanceled},
			wantTotal:  5,
			wantLimit:  2,
			wantOffset: 2,
		},
		{
			name: "past the end",
			filter: &types.SubscriptionEventFilter{
				QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(10), Offset: lo.ToPtr(10)},
			},
			wantTypes:  []types.SubscriptionEventType{},
			wantTotal:  5,
			wantLimit:  10,
			wantOffset: 10,
		},
		{
			name: "by event type",
			filter: &types.SubscriptionEventFilter{
				QueryFilter: types.NewNoLimitQueryFilter(),
				EventTypes:  []types.SubscriptionEventType{types.SubscriptionEventCanceled, types.SubscriptionEventEnded},
			},
			wantTypes: []types.SubscriptionEventType{types.SubscriptionEventCanceled, types.SubscriptionEventEnded},
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.ListEvents(s.GetContext(), sub.ID, tt.filter)
			s.Require().NoError(err)

			got := lo.Map(resp.Items, func(e *dto.SubscriptionEventResponse, _ int) types.SubscriptionEventType {
				return e.EventType
			})
			s.Equal(tt.wantTypes, got)
			s.Equal(tt.wantTotal, resp.Pagination.Total)
			s.Equal(tt.wantLimit, resp.Pagination.Limit)
			s.Equal(tt.wantOffset, resp.Pagination.Offset)
		})
	}

	_, err = s.service.ListEvents(s.GetContext(), sub.ID, &types.SubscriptionEventFilter{
		QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(0)},
	})
	s.True(ierr.IsValidation(err))
}
