package service

import (
	"github.com/facebookgo/clock"
	"github.com/ispbilling/ispbilling/internal/cache"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/metrics"
	"github.com/ispbilling/ispbilling/internal/postgres"
	"github.com/ispbilling/ispbilling/internal/pubsub"
	"github.com/ispbilling/ispbilling/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      postgres.IClient
	Clock   clock.Clock
	Cache   cache.Cache
	Metrics *metrics.Metrics
	Sentry  *sentry.Service

	// Repositories
	PlanRepo              plan.Repository
	SubRepo               subscription.Repository
	SubscriptionEventRepo subscriptionevent.Repository

	// Publishers
	EventPublisher pubsub.Publisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	clk clock.Clock,
	cache cache.Cache,
	metrics *metrics.Metrics,
	sentry *sentry.Service,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	subscriptionEventRepo subscriptionevent.Repository,
	eventPublisher pubsub.Publisher,
) ServiceParams {
	return ServiceParams{
		Logger:                logger,
		Config:                config,
		DB:                    db,
		Clock:                 clk,
		Cache:                 cache,
		Metrics:               metrics,
		Sentry:                sentry,
		PlanRepo:              planRepo,
		SubRepo:               subRepo,
		SubscriptionEventRepo: subscriptionEventRepo,
		EventPublisher:        eventPublisher,
	}
}
