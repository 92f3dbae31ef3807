package postgres

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/logger"
	"go.uber.org/fx"
)

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// Querier returns the current transaction if in a transaction, or the pool
	Querier(ctx context.Context) Querier
}

// Module provides the pool, the sentry instrumented client and closes the pool on stop
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
		fx.Invoke(func(lc fx.Lifecycle, db *DB, log *logger.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					log.Info("closing postgres pool")
					db.Close()
					return nil
				},
			})
		}),
	)
}
