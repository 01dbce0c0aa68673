package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food-ordering-api/auth"
	"food-ordering-api/cache"
	"food-ordering-api/config"
	"food-ordering-api/events"
	"food-ordering-api/handlers"
	"food-ordering-api/logger"
	"food-ordering-api/repository"
	"food-ordering-api/routes"
	"food-ordering-api/services"
	"food-ordering-api/statemachine"
	"food-ordering-api/storage"
)

const (
	readHeaderTimeout = 30 * time.Second
	readTimeout       = 5 * time.Minute
	writeTimeout      = 5 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.IsTest() {
		gin.SetMode(gin.TestMode)
	}
	if f := cfg.EnvFile(); f != "" {
		log.WithField("file", f).Info("loaded environment file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.WithField("driver", cfg.DatabaseDriver).Info("database connected and migrated")

	var redisCache *cache.Client
	if cfg.RedisAddr != "" {
		redisCache = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, token revocation will not persist")
		}
	} else {
		log.Warn("REDIS_ADDR not set, logout cannot revoke tokens")
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	policy, err := statemachine.ParsePolicy(cfg.OrderTransitions)
	if err != nil {
		return err
	}
	totals, err := services.ParseTotalPolicy(cfg.OrderTotalPolicy)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	restaurants := repository.NewRestaurantRepository(db)
	orders := repository.NewOrderRepository(db)

	authSvc := services.NewAuthService(users, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		auth.NewRevocationStore(redisCache), cfg.AdminSignupCode, log)
	catalog := services.NewCatalogService(restaurants, images, log)
	orderSvc := services.NewOrderService(orders, restaurants, statemachine.New(policy), totals, publisher, log)

	uploadDir := ""
	if cfg.ImageStore == "local" {
		uploadDir = cfg.UploadDir
	}
	router := routes.NewRouter(
		routes.Options{APIPrefix: cfg.APIPrefix, UploadDir: uploadDir, CORSOrigins: cfg.CORSOrigins, Logger: log},
		authSvc,
		routes.Handlers{
			Auth:        handlers.NewAuthHandler(authSvc),
			Restaurants: handlers.NewRestaurantHandler(catalog),
			Orders:      handlers.NewOrderHandler(orderSvc),
			Health:      handlers.NewHealthHandler(db),
		},
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"env":         cfg.GoEnv,
			"image_store": cfg.ImageStore,
			"transitions": policy,
			"totals":      totals,
		}).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageStore == "s3" {
		return storage.NewS3Store(ctx, storage.S3Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.AWSS3Bucket,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			MaxBytes:        cfg.MaxUploadBytes,
		})
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLocalStore(cfg.UploadDir, cfg.MaxUploadBytes), nil
}

// newPublisher connects to RabbitMQ when configured. A broker that is down at
// startup degrades to a no-op publisher instead of blocking the API.
func newPublisher(cfg *config.Config, log *logrus.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NoopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, log)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unreachable, order events disabled")
		return events.NoopPublisher{}
	}
	return p
}
