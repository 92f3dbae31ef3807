package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/ispbilling/ispbilling/internal/api/v1"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/metrics"
	"github.com/ispbilling/ispbilling/internal/rest/middleware"
	"github.com/ispbilling/ispbilling/internal/sentry"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Plan         *v1.PlanHandler
	Subscription *v1.SubscriptionHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	log *logger.Logger,
	m *metrics.Metrics,
	sentrySvc *sentry.Service,
) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.MetricsMiddleware(m),
		middleware.ErrorHandler(log, sentrySvc),
	)

	router.GET("/health", handlers.Health.Health)
	if cfg.Metrics.Enabled {
		router.GET(m.Path(), gin.WrapH(m.Handler()))
	}

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.TenantMiddleware, middleware.SentryScopeMiddleware)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	plans := router.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.ListPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
		plans.POST("/:id/deactivate", handlers.Plan.DeactivatePlan)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/change-plan", handlers.Subscription.ChangePlan)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:id/reactivate", handlers.Subscription.ReactivateSubscription)
		subscriptions.POST("/:id/pause", handlers.Subscription.PauseSubscription)
		subscriptions.POST("/:id/resume", handlers.Subscription.ResumeSubscription)
		subscriptions.POST("/:id/usage", handlers.Subscription.RecordUsage)
		subscriptions.GET("/:id/events", handlers.Subscription.ListEvents)
		subscriptions.GET("/:id/overage", handlers.Subscription.GetOverage)
	}
}
