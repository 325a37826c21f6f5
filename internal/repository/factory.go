package repository

import (
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/postgres"
	postgresRepo "github.com/flexprice/coupon-service/internal/repository/postgres"
)

func NewCouponRepository(db *postgres.DB, logger *logger.Logger) coupon.Repository {
	return postgresRepo.NewCouponRepository(db, logger)
}
