package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/coupon-service/internal/api"
	v1 "github.com/flexprice/coupon-service/internal/api/v1"
	"github.com/flexprice/coupon-service/internal/auth"
	"github.com/flexprice/coupon-service/internal/cache"
	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/metrics"
	"github.com/flexprice/coupon-service/internal/postgres"
	"github.com/flexprice/coupon-service/internal/pubsub"
	"github.com/flexprice/coupon-service/internal/pubsub/kafka"
	"github.com/flexprice/coupon-service/internal/pubsub/memory"
	"github.com/flexprice/coupon-service/internal/repository"
	"github.com/flexprice/coupon-service/internal/sentry"
	"github.com/flexprice/coupon-service/internal/service"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/flexprice/coupon-service/internal/validator"
	"github.com/flexprice/coupon-service/internal/webhook/publisher"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	opts = append(opts,
		fx.Provide(
			validator.NewValidator,

			config.NewConfig,

			logger.NewLogger,

			metrics.NewRegistry,

			cache.NewInMemoryCache,

			postgres.NewDB,
			providePostgresClient,

			providePubSub,
			publisher.NewPublisher,

			auth.NewProvider,

			repository.NewCouponRepository,
		),
		sentry.Module(),
	)

	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewCouponService,
		),
	)

	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func providePostgresClient(db *postgres.DB) postgres.IClient {
	return db
}

// providePubSub picks the event bus transport from configuration
func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	var (
		ps  pubsub.PubSub
		err error
	)

	switch cfg.EventBus.Driver {
	case types.EventBusDriverKafka:
		ps, err = kafka.NewPubSub(cfg, log)
		if err != nil {
			return nil, err
		}
	default:
		ps = memory.NewPubSub(log)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})
	return ps, nil
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	couponService service.CouponService,
) api.Handlers {
	return api.Handlers{
		Health: v1.NewHealthHandler(db, logger),
		Coupon: v1.NewCouponHandler(couponService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	startAPIServer(lc, r, cfg, log)

	if cfg.Deployment.Mode == types.ModeLocal {
		startEventLogger(lc, ps, cfg, log)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server", "address", cfg.Server.Address)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalw("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down API server")
			return server.Shutdown(ctx)
		},
	})
}

// startEventLogger tails the coupon event topic and logs each event. Local mode only.
func startEventLogger(
	lc fx.Lifecycle,
	ps pubsub.PubSub,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			messages, err := ps.Subscribe(ctx, cfg.EventBus.Topic)
			if err != nil {
				return err
			}
			go func() {
				for msg := range messages {
					log.Debugw("coupon event",
						"message_id", msg.UUID,
						"event_name", msg.Metadata.Get("event_name"),
						"request_id", msg.Metadata.Get("request_id"),
					)
					msg.Ack()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
