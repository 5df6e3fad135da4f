// @title                       Parcel Tracker API
// @version                     1.0
// @description                 Registers parcels and keeps their delivery status in sync with the Thailand Post tracking API.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and a JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/99minutos/parcel-tracker/internal/api"
	"github.com/99minutos/parcel-tracker/internal/api/handler"
	"github.com/99minutos/parcel-tracker/internal/core/normalizer"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
	"github.com/99minutos/parcel-tracker/internal/core/service"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/cache"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/db/mongo"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/db/redis"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/queue"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/thailandpost"
	"github.com/99minutos/parcel-tracker/internal/pkg/config"
	"github.com/99minutos/parcel-tracker/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "parcel-tracker",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("parcel-tracker stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	parcelRepo := mongo.NewParcelRepository(db)
	if err := parcelRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure parcel indexes")
	}

	checks := []handler.NamedCheck{{
		Name: "mongodb",
		Check: func(ctx context.Context) error {
			return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		},
	}}

	var trackingCache ports.TrackingCache
	switch cfg.Tracking.CacheBackend {
	case config.CacheBackendRedis:
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.ConnectTimeout,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		trackingCache = redis.NewTrackingCache(rdb, cache.DefaultTTL)
		checks = append(checks, handler.NamedCheck{Name: "redis", Check: pingRedis(rdb)})
	default:
		trackingCache = cache.NewMemory(cache.DefaultTTL, nil)
	}

	carrier := thailandpost.New(thailandpost.Config{
		URL:      cfg.ThailandPost.URL,
		Token:    cfg.ThailandPost.Token,
		Language: cfg.ThailandPost.Language,
		Timeout:  cfg.ThailandPost.Timeout(),
	}, logger.Component(log, "thailandpost"))
	if !carrier.Configured() {
		log.Warn().Msg("THAILAND_POST_API_TOKEN not set, carrier lookups will fail until it is configured")
	}

	norm := normalizer.New(logger.Component(log, "normalizer"), nil)
	trackingSvc := service.NewTrackingService(carrier, trackingCache, norm, nil, logger.Component(log, "tracking"))
	parcelSvc := service.NewParcelService(parcelRepo, trackingSvc, logger.Component(log, "parcels"))

	deps := api.Dependencies{
		Parcels:   parcelSvc,
		Tracking:  trackingSvc,
		Checks:    checks,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if cfg.Refresh.Enabled {
		refresher := queue.NewRefresher(parcelSvc, cfg.Refresh.Interval, logger.Component(log, "refresher"))
		refresher.Start(workerCtx)
		deps.Refresher = refresher
		defer func() {
			cancelWorkers()
			<-refresher.Done()
		}()
	}

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("cache_backend", cfg.Tracking.CacheBackend).
			Bool("refresh_enabled", cfg.Refresh.Enabled).
			Msg("parcel-tracker listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func pingRedis(rdb *goredis.Client) handler.DependencyCheck {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
