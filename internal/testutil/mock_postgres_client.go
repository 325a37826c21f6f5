package testutil

import (
	"context"
	"sync/atomic"

	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient is a mock implementation of postgres client for testing
type MockPostgresClient struct {
	logger *logger.Logger
	txs    atomic.Int64
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx runs fn directly. The in-memory stores do not roll back.
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.txs.Add(1)
	return fn(ctx)
}

// TxCount returns how many transactions were opened
func (c *MockPostgresClient) TxCount() int64 {
	return c.txs.Load()
}
