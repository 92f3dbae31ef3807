package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/facebookgo/clock"
	"github.com/ispbilling/ispbilling/internal/api/dto"
	"github.com/ispbilling/ispbilling/internal/cache"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
	"github.com/ispbilling/ispbilling/internal/repository"
	"github.com/ispbilling/ispbilling/internal/sentry"
	"github.com/ispbilling/ispbilling/internal/service"
	"github.com/ispbilling/ispbilling/internal/types"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

const (
	seedWorkers        = 4
	seedRequestsPerSec = 20
)

// SeedPlans reads a JSON array of plan definitions from PLANS_FILE and creates
// them for TENANT_ID. Every plan is attempted; failures are reported together
// and the plans that succeeded stay.
func SeedPlans() error {
	plansFile := os.Getenv("PLANS_FILE")
	tenantID := os.Getenv("TENANT_ID")
	if plansFile == "" || tenantID == "" {
		return fmt.Errorf("PLANS_FILE and TENANT_ID are required")
	}

	raw, err := os.ReadFile(plansFile)
	if err != nil {
		return fmt.Errorf("reading plans file: %w", err)
	}

	var requests []dto.CreatePlanRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return fmt.Errorf("parsing plans file: %w", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	sentrySvc := sentry.NewSentryService(cfg, log)
	client := postgres.NewClient(db, sentrySvc, log)
	params := service.NewServiceParams(
		log,
		cfg,
		client,
		clock.New(),
		cache.NewInMemoryCache(cfg, log),
		nil,
		sentrySvc,
		repository.NewPlanRepository(client, log),
		repository.NewSubscriptionRepository(client, log),
		repository.NewSubscriptionEventRepository(client, log),
		nil,
	)
	planService := service.NewPlanService(params)

	ctx := types.SetTenantID(context.Background(), tenantID)
	if userID := os.Getenv("USER_ID"); userID != "" {
		ctx = types.SetUserID(ctx, userID)
	}

	limiter := rate.NewLimiter(rate.Limit(seedRequestsPerSec), 1)
	p := pool.New().WithErrors().WithMaxGoroutines(seedWorkers)
	for i, req := range requests {
		p.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			resp, err := planService.CreatePlan(ctx, req)
			if err != nil {
				return fmt.Errorf("creating plan %d (%s): %w", i, req.Name, err)
			}
			log.Infow("plan created", "plan_id", resp.ID, "name", resp.Name, "tenant_id", tenantID)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	fmt.Printf("Created %d plans for tenant %s\n", len(requests), tenantID)
	return nil
}
