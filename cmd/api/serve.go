package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/config"
	"github.com/flicky/storefront-api/internal/handler"
	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/pricing"
	"github.com/flicky/storefront-api/internal/repository"
	"github.com/flicky/storefront-api/internal/service"
	"github.com/flicky/storefront-api/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the stock worker (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.Log.Level)
	slog.SetDefault(log)
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// MongoDB
	mongoClient, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error("disconnect mongo", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	productCache := cache.New(redisClient, cfg.Redis.ProductCacheTTL)
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		return err
	}

	publishCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)

	// Services
	engine := pricing.NewEngine(cfg.Pricing.TaxRate, cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingFee)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	services := handler.Services{
		Accounts:  authSvc,
		Users:     service.NewUserService(userRepo, orderRepo),
		Addresses: service.NewAddressService(userRepo),
		Catalog:   service.NewProductService(productRepo, productCache),
		Carts:     service.NewCartService(cartRepo, productRepo, engine),
		Orders:    service.NewOrderService(orderRepo, productRepo, cartRepo, engine, productCache, worker.NewPublisher(publishCh)),
		Dashboard: service.NewStatsService(userRepo, orderRepo),
	}

	if cfg.Admin.Email != "" {
		if _, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	health := handler.NewHealthHandler(
		handler.Dependency{Name: "mongodb", Check: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}},
		handler.Dependency{Name: "redis", Check: productCache.Ping},
		handler.Dependency{Name: "rabbitmq", Check: func(context.Context) error {
			if amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}},
	)

	if err := handler.RegisterValidators(); err != nil {
		return err
	}
	router := handler.NewRouter(log, cfg.Server.MaxBodyBytes, services, health)

	// Worker
	stockWorker := worker.NewStockWorker(consumeCh, productRepo, productCache, log)
	if err := stockWorker.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		stockWorker.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	stockWorker.Stop()
	cancel()
	log.Info("server stopped")
	return nil
}
