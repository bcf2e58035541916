package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/altastore/stock-service/config"
	invhandler "github.com/altastore/stock-service/internal/inventory/handler"
	invrepo "github.com/altastore/stock-service/internal/inventory/repository"
	invusecase "github.com/altastore/stock-service/internal/inventory/usecase"
	"github.com/altastore/stock-service/internal/order/listener"
	prodhandler "github.com/altastore/stock-service/internal/product/handler"
	prodrepo "github.com/altastore/stock-service/internal/product/repository"
	produsecase "github.com/altastore/stock-service/internal/product/usecase"
	"github.com/altastore/stock-service/internal/server"
	"github.com/altastore/stock-service/internal/stocksync"
	"github.com/altastore/stock-service/pkg/broker"
	"github.com/altastore/stock-service/pkg/cache"
	"github.com/altastore/stock-service/pkg/database/postgres"
	"github.com/altastore/stock-service/pkg/logger"
	"github.com/altastore/stock-service/pkg/search"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.LoadEnv()

	appLogger := logger.New(&logger.Config{
		IsDevelopment:     cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	appLogger.Info("starting stock service", zap.String("env", cfg.Server.AppEnv))

	db, err := postgres.New(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to postgres")

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to redis")

	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		// Search is an enhancement; the service degrades to database queries.
		appLogger.Warn("elasticsearch unavailable, search disabled", zap.Error(err))
	} else {
		appLogger.Info("connected to elasticsearch")
	}

	failureProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SyncFailuresTopic)
	defer failureProducer.Close()

	ordersConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.OrdersGroupID,
	})
	defer ordersConsumer.Close()

	inventoryRepo := invrepo.NewPGRepository(db)
	productRepo := prodrepo.NewPGRepository(db)

	inventoryUC := invusecase.NewInventoryUseCase(inventoryRepo, redisClient, appLogger)
	productUC := produsecase.NewProductUseCase(productRepo, redisClient, esClient, appLogger)

	coordinator := stocksync.NewCoordinator(appLogger, failureProducer)
	coordinator.Bind(inventoryUC, productUC)
	inventoryUC.SetCatalogSyncer(coordinator)
	productUC.SetInventorySyncer(coordinator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderListener := listener.NewOrderListener(ordersConsumer, productUC, appLogger)
	go orderListener.Start(ctx)

	inventoryHandler := invhandler.NewInventoryHandler(inventoryUC, appLogger)
	productHandler := prodhandler.NewProductHandler(productUC, appLogger)

	srv := server.New(cfg.Server.HTTPPort, inventoryHandler, productHandler, appLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			appLogger.Error("http server failed", zap.Error(err))
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("stopped")
}
