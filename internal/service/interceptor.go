package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ispbilling/ispbilling/internal/config"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/metrics"
	"github.com/sony/gobreaker"
)

// Operation is one attempt of a use case
type Operation func(ctx context.Context) error

// Interceptor wraps an operation with a cross-cutting concern. op is the use
// case name, used for labels and log fields.
type Interceptor func(ctx context.Context, op string, next Operation) error

// Chain composes interceptors around use cases. The first interceptor is the
// outermost one.
type Chain struct {
	interceptors []Interceptor
}

// NewChain builds a chain, skipping nil interceptors
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	for _, i := range interceptors {
		if i != nil {
			c.interceptors = append(c.interceptors, i)
		}
	}
	return c
}

// Run executes fn through every interceptor of the chain
func (c *Chain) Run(ctx context.Context, op string, fn Operation) error {
	if c == nil {
		return fn(ctx)
	}
	next := fn
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		inner := next
		next = func(ctx context.Context) error {
			return interceptor(ctx, op, inner)
		}
	}
	return next(ctx)
}

// Execute runs fn through the chain and returns its value. A retried
// operation only yields the value of its last attempt.
func Execute[T any](ctx context.Context, c *Chain, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := c.Run(ctx, op, func(ctx context.Context) error {
		var zero T
		result = zero
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// LoggingInterceptor logs failures with the request scoped fields of ctx.
// Expected business failures go to info, everything else to error.
func LoggingInterceptor(log *logger.Logger, service string) Interceptor {
	return func(ctx context.Context, op string, next Operation) error {
		start := time.Now()
		err := next(ctx)
		l := log.WithContext(ctx)
		if err == nil {
			l.Debugw("operation completed",
				"service", service,
				"operation", op,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}

		fields := []interface{}{
			"service", service,
			"operation", op,
			"error_code", ierr.CodeFromErr(err),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if isExpected(err) {
			l.Infow("operation rejected", append(fields, "reason", err.Error())...)
		} else {
			l.Errorw("operation failed", append(fields, "error", err)...)
		}
		return err
	}
}

// RetryInterceptor re-runs the whole operation from scratch on version
// conflicts and transient store failures, with exponential backoff.
func RetryInterceptor(cfg config.RetryConfig, m *metrics.Metrics, log *logger.Logger, service string) Interceptor {
	if cfg.MaxRetries == 0 {
		return nil
	}
	return func(ctx context.Context, op string, next Operation) error {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.InitialInterval
		b.MaxInterval = cfg.MaxInterval
		b.MaxElapsedTime = cfg.MaxElapsedTime

		attempt := 0
		return backoff.Retry(func() error {
			attempt++
			if attempt > 1 {
				m.RecordRetry(service, op)
				log.WithContext(ctx).Debugw("retrying operation",
					"service", service,
					"operation", op,
					"attempt", attempt,
				)
			}
			err := next(ctx)
			if err != nil && !ierr.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}, backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx))
	}
}

// MetricsInterceptor records the outcome and latency of each attempt
func MetricsInterceptor(m *metrics.Metrics, service string) Interceptor {
	if m == nil {
		return nil
	}
	return func(ctx context.Context, op string, next Operation) error {
		start := time.Now()
		err := next(ctx)
		m.RecordOperation(service, op, err, time.Since(start))
		return err
	}
}

// NewCircuitBreaker builds the breaker guarding a service's store access.
// Only infrastructure failures count towards tripping it.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig, m *metrics.Metrics, log *logger.Logger, name string) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isExpected(err) || ierr.IsVersionConflict(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.SetBreakerState(name, int(to))
			log.Warnw("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// BreakerInterceptor fails fast with a transient error while the breaker is open
func BreakerInterceptor(cb *gobreaker.CircuitBreaker) Interceptor {
	if cb == nil {
		return nil
	}
	return func(ctx context.Context, op string, next Operation) error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, next(ctx)
		})
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return ierr.WithError(err).
				WithHint("Service is temporarily unavailable, please retry later").
				WithReportableDetails(map[string]any{
					"breaker":   cb.Name(),
					"operation": op,
				}).
				Mark(ierr.ErrTransient)
		}
		return err
	}
}

// NewDefaultChain wires logging, retry, metrics and breaker in that order.
// Retry sits outside metrics and the breaker so every attempt is observed.
func NewDefaultChain(params ServiceParams, service string) *Chain {
	return NewChain(
		LoggingInterceptor(params.Logger, service),
		RetryInterceptor(params.Config.Retry, params.Metrics, params.Logger, service),
		MetricsInterceptor(params.Metrics, service),
		BreakerInterceptor(NewCircuitBreaker(params.Config.CircuitBreaker, params.Metrics, params.Logger, service)),
	)
}

// isExpected reports business outcomes that are not service faults
func isExpected(err error) bool {
	return ierr.IsNotFound(err) ||
		ierr.IsValidation(err) ||
		ierr.IsInvalidOperation(err) ||
		ierr.IsAlreadyExists(err)
}
