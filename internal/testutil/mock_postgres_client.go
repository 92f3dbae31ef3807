package testutil

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient runs transactions inline. In-memory stores have no
// rollback, so mutations must only be written once all checks pass.
type MockPostgresClient struct {
	logger *logger.Logger
	txs    int
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes fn without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.txs++
	return fn(ctx)
}

// Querier has no database behind it
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}

// TxCount returns how many transactions were started
func (c *MockPostgresClient) TxCount() int {
	return c.txs
}
