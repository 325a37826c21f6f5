package internal

import (
	"context"
	"time"

	"github.com/flexprice/coupon-service/internal/api/dto"
	"github.com/flexprice/coupon-service/internal/cache"
	"github.com/flexprice/coupon-service/internal/config"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/metrics"
	"github.com/flexprice/coupon-service/internal/postgres"
	"github.com/flexprice/coupon-service/internal/pubsub/memory"
	"github.com/flexprice/coupon-service/internal/repository"
	"github.com/flexprice/coupon-service/internal/service"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/flexprice/coupon-service/internal/webhook/publisher"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type seedCoupon struct {
	request      dto.CreateCouponRequest
	translations map[string]string
}

// SeedCoupons creates a handful of approved sample coupons, with translations,
// through the coupon service. Coupons that already exist are skipped.
func SeedCoupons() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ps := memory.NewPubSub(log)
	pub, err := publisher.NewPublisher(ps, cfg, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	svc := service.NewCouponService(service.NewServiceParams(
		log,
		cfg,
		db,
		cache.NewInMemoryCache(cfg),
		repository.NewCouponRepository(db, log),
		pub,
		metrics.NewRegistry(),
	))

	ctx := types.SetActor(context.Background(), &types.Actor{
		UserID:      1,
		Permissions: []types.Permission{types.PermissionSuperAdmin},
	})

	now := time.Now().UTC()
	seeds := []seedCoupon{
		{
			request: dto.CreateCouponRequest{
				Code:              "WELCOME10",
				Description:       "10 off your first order",
				Type:              types.CouponTypeFixed,
				Amount:            decimal.NewFromInt(10),
				MinimumCartAmount: decimal.NewFromInt(50),
				ActiveFrom:        lo.ToPtr(now),
				ExpireAt:          lo.ToPtr(now.AddDate(1, 0, 0)),
			},
			translations: map[string]string{"de": "10 Rabatt auf Ihre erste Bestellung"},
		},
		{
			request: dto.CreateCouponRequest{
				Code:        "SPRING25",
				Description: "25% off the spring collection",
				Type:        types.CouponTypePercentage,
				Amount:      decimal.NewFromInt(25),
				ActiveFrom:  lo.ToPtr(now),
				ExpireAt:    lo.ToPtr(now.AddDate(0, 3, 0)),
				ShopID:      lo.ToPtr(int64(1)),
				Target:      types.CouponTargetVerifiedCustomer,
			},
			translations: map[string]string{"de": "25% auf die Frühjahrskollektion"},
		},
	}

	for _, seed := range seeds {
		created, err := svc.CreateCoupon(ctx, seed.request)
		if ierr.IsAlreadyExists(err) {
			log.Infow("coupon already exists, skipping", "code", seed.request.Code)
			continue
		}
		if err != nil {
			return err
		}
		log.Infow("seeded coupon", "id", created.ID, "code", created.Code)

		for language, description := range seed.translations {
			translation, err := svc.CreateCoupon(ctx, dto.CreateCouponRequest{
				Code:        seed.request.Code,
				Language:    language,
				Description: description,
			})
			if err != nil {
				return err
			}
			log.Infow("seeded translation", "id", translation.ID, "code", translation.Code, "language", language)
		}
	}

	return nil
}
