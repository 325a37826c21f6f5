package service

import (
	"github.com/flexprice/coupon-service/internal/cache"
	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/metrics"
	"github.com/flexprice/coupon-service/internal/postgres"
	webhookPublisher "github.com/flexprice/coupon-service/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	// Repositories
	CouponRepo coupon.Repository

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher

	Metrics *metrics.Registry
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	couponRepo coupon.Repository,
	webhookPublisher webhookPublisher.WebhookPublisher,
	metrics *metrics.Registry,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		Cache:            cache,
		CouponRepo:       couponRepo,
		WebhookPublisher: webhookPublisher,
		Metrics:          metrics,
	}
}
