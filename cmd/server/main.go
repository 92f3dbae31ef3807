package main

import (
	"context"
	"net/http"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gin-gonic/gin"
	"github.com/ispbilling/ispbilling/internal/api"
	v1 "github.com/ispbilling/ispbilling/internal/api/v1"
	"github.com/ispbilling/ispbilling/internal/cache"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/metrics"
	"github.com/ispbilling/ispbilling/internal/postgres"
	"github.com/ispbilling/ispbilling/internal/pubsub"
	"github.com/ispbilling/ispbilling/internal/pubsub/kafka"
	"github.com/ispbilling/ispbilling/internal/pubsub/memory"
	"github.com/ispbilling/ispbilling/internal/repository"
	"github.com/ispbilling/ispbilling/internal/sentry"
	"github.com/ispbilling/ispbilling/internal/service"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/ispbilling/ispbilling/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			clock.New,

			// Cache
			cache.NewInMemoryCache,

			// Metrics
			metrics.NewMetrics,

			// Event bus
			providePubSub,
			providePublisher,

			// Repositories
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,
			repository.NewSubscriptionEventRepository,
		),
		sentry.Module(),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewEventRecorder,
			service.NewPlanService,
			service.NewSubscriptionService,
			provideEventConsumer,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			runMigrations,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	var (
		ps  pubsub.PubSub
		err error
	)

	switch cfg.Events.Backend {
	case types.EventsBackendKafka:
		ps, err = kafka.NewPubSub(cfg, log)
		if err != nil {
			return nil, err
		}
	default:
		ps = memory.NewPubSub(log)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing event bus")
			return ps.Close()
		},
	})
	return ps, nil
}

func providePublisher(ps pubsub.PubSub) pubsub.Publisher {
	return ps
}

func provideEventConsumer(params service.ServiceParams, ps pubsub.PubSub) service.EventConsumer {
	return service.NewEventConsumer(params, ps)
}

func provideHandlers(
	logger *logger.Logger,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Plan:         v1.NewPlanHandler(planService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
	}
}

func provideRouter(
	handlers api.Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	m *metrics.Metrics,
	sentrySvc *sentry.Service,
) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger, m, sentrySvc)
}

func runMigrations(lc fx.Lifecycle, cfg *config.Configuration, db *postgres.DB, log *logger.Logger) {
	if !cfg.Postgres.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("running database migrations")
			return postgres.Migrate(ctx, db, log)
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	consumer service.EventConsumer,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startConsumer(lc, consumer, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		startConsumer(lc, consumer, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return srv.Shutdown(ctx)
		},
	})
}

func startConsumer(lc fx.Lifecycle, consumer service.EventConsumer, log *logger.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := consumer.Run(ctx); err != nil {
					log.Errorw("event consumer failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info("shutting down event consumer")
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
