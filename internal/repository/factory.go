package repository

import (
	"github.com/ispbilling/ispbilling/internal/domain/plan"
	"github.com/ispbilling/ispbilling/internal/domain/subscription"
	"github.com/ispbilling/ispbilling/internal/domain/subscriptionevent"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
	postgresRepo "github.com/ispbilling/ispbilling/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
)

func NewPlanRepository(db postgres.IClient, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewSubscriptionEventRepository(db postgres.IClient, logger *logger.Logger) subscriptionevent.Repository {
	return postgresRepo.NewSubscriptionEventRepository(db, logger)
}
