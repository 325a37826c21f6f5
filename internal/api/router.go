package api

import (
	v1 "github.com/flexprice/coupon-service/internal/api/v1"
	"github.com/flexprice/coupon-service/internal/auth"
	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/metrics"
	"github.com/flexprice/coupon-service/internal/rest/middleware"
	"github.com/flexprice/coupon-service/internal/sentry"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health *v1.HealthHandler
	Coupon *v1.CouponHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	authProvider auth.Provider,
	registry *metrics.Registry,
	sentrySvc *sentry.Service,
) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.RequestLogger(logger, registry),
		middleware.ErrorHandler(logger, sentrySvc),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry.Registry, promhttp.HandlerOpts{})))

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.AuthenticateMiddleware(authProvider, logger))
	registerV1Routes(v1Group, handlers, cfg)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, cfg *config.Configuration) {
	router.GET("/health", handlers.Health.Health)

	coupons := router.Group("/coupons")
	{
		coupons.GET("", handlers.Coupon.ListCoupons)
		coupons.GET("/:id", handlers.Coupon.GetCoupon)
		coupons.POST("/verify",
			middleware.RateLimit(cfg.Coupon.VerifyRPS, cfg.Coupon.VerifyBurst),
			handlers.Coupon.VerifyCoupon,
		)
		coupons.POST("", middleware.RequireAuth, handlers.Coupon.CreateCoupon)
		coupons.PUT("/:id", middleware.RequireAuth, handlers.Coupon.UpdateCoupon)
		coupons.DELETE("/:id", middleware.RequireAuth, handlers.Coupon.DeleteCoupon)
	}

	router.POST("/approve-coupon", middleware.RequireAuth, handlers.Coupon.ApproveCoupon)
	router.POST("/disapprove-coupon", middleware.RequireAuth, handlers.Coupon.DisapproveCoupon)
}
