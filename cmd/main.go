package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/cache"
	"github.com/fjod/go_cart/pricing-service/internal/catalog"
	"github.com/fjod/go_cart/pricing-service/internal/config"
	h "github.com/fjod/go_cart/pricing-service/internal/http"
	"github.com/fjod/go_cart/pricing-service/internal/logger"
	"github.com/fjod/go_cart/pricing-service/internal/poller"
	"github.com/fjod/go_cart/pricing-service/internal/repository"
	s "github.com/fjod/go_cart/pricing-service/internal/service"
	"github.com/fjod/go_cart/pricing-service/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Catalog
	catalogRepo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		log.Fatal("Failed to migrate catalog", zap.Error(err))
	}
	log.Info("Catalog ready", zap.String("db_path", cfg.Catalog.DBPath))

	// Cart snapshots
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	repo := repository.NewBreakerRepository(repository.NewMongoRepository(mongoDB), repository.BreakerSettings{
		Name:             "cart-repository",
		MaxRequests:      uint32(cfg.Breaker.MaxRequests),
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		ConsecutiveFails: uint32(cfg.Breaker.ConsecutiveFails),
	})
	if err := repository.EnsureIndexes(ctx, repo); err != nil {
		log.Fatal("Failed to create indexes", zap.Error(err))
	}
	log.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}
	log.Info("Redis ping succeeded", zap.String("addr", cfg.Redis.Addr))

	service := s.NewCartService(repo, cache.NewRedisCache(redisClient, cfg.Redis.CartTTL), catalogRepo, log,
		store.WithLenientLookup(cfg.Cart.LenientItemLookup),
		store.WithCouponRules(cfg.Cart.EnforceCouponRules),
	)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if cfg.Kafka.Enabled {
		checkoutPoller := poller.NewPoller(service, log.Named("poller"), poller.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer checkoutPoller.Close()
		go checkoutPoller.Run(runCtx)
		log.Info("Checkout poller started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	router := h.NewRouter(
		h.NewCartHandler(service, log, cfg.Server.RequestTimeout),
		h.NewProductHandler(service, log, cfg.Server.RequestTimeout),
		cfg.Server.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Pricing service starting", zap.String("port", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down pricing service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect failed", zap.Error(err))
	}

	log.Info("Pricing service stopped")
}
