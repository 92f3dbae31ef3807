package testutil

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"github.com/ispbilling/ispbilling/internal/cache"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/metrics"
	"github.com/ispbilling/ispbilling/internal/sentry"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/ispbilling/ispbilling/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	PlanRepo              plan.Repository
	SubscriptionRepo      subscription.Repository
	SubscriptionEventRepo subscriptionevent.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	pubsub  *InMemoryPubSub
	db      *MockPostgresClient
	cache   cache.Cache
	metrics *metrics.Metrics
	sentry  *sentry.Service
	logger  *logger.Logger
	config  *config.Configuration
	clock   *clock.Mock
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelError
	cfg.Retry.InitialInterval = time.Millisecond
	cfg.Retry.MaxInterval = 5 * time.Millisecond
	cfg.Retry.MaxElapsedTime = time.Second
	s.config = cfg
	s.logger = logger.NewNoopLogger()
	s.sentry = sentry.NewSentryService(cfg, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.clock = clock.NewMock()
	// the mock starts at the epoch
	s.clock.Add(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).Sub(s.clock.Now()))
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		PlanRepo:              NewInMemoryPlanStore(),
		SubscriptionRepo:      NewInMemorySubscriptionStore(),
		SubscriptionEventRepo: NewInMemorySubscriptionEventStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
	s.pubsub = NewInMemoryPubSub()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.metrics = metrics.NewMetrics(s.config)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.SubscriptionEventRepo.(*InMemorySubscriptionEventStore).Clear()
	s.pubsub.Clear()
	s.cache.Flush(s.ctx)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPubSub returns the capturing publisher
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the plan cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetMetrics returns the per-test metrics registry
func (s *BaseServiceTestSuite) GetMetrics() *metrics.Metrics {
	return s.metrics
}

// GetSentry returns a disabled sentry service
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetClock returns the mock clock driving the services
func (s *BaseServiceTestSuite) GetClock() *clock.Mock {
	return s.clock
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.clock.Now().UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
