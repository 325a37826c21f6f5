package testutil

import (
	"context"
	"time"

	"github.com/flexprice/coupon-service/internal/cache"
	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/metrics"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/flexprice/coupon-service/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	CouponRepo *InMemoryCouponStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	webhookPublisher *InMemoryWebhookPublisher
	db               *MockPostgresClient
	cache            cache.Cache
	metrics          *metrics.Registry
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNoopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.now = time.Now().UTC()
	s.stores = Stores{
		CouponRepo: NewInMemoryCouponStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache(s.config)
	s.metrics = metrics.NewRegistry()
	s.webhookPublisher = NewInMemoryWebhookPublisher()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.CouponRepo.Clear()
	s.cache.Flush(context.Background())
	s.webhookPublisher.Reset()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetContextAs returns the test context authenticated as actor
func (s *BaseServiceTestSuite) GetContextAs(actor *types.Actor) context.Context {
	return types.SetActor(s.ctx, actor)
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetWebhookPublisher returns the recording event publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() *InMemoryWebhookPublisher {
	return s.webhookPublisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetMetrics returns the test metrics registry
func (s *BaseServiceTestSuite) GetMetrics() *metrics.Registry {
	return s.metrics
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
