package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/config"
	alertrepo "github.com/terra-footwear/terra-stock-service/internal/alert/repository"
	alertusecase "github.com/terra-footwear/terra-stock-service/internal/alert/usecase"
	ledgerrepo "github.com/terra-footwear/terra-stock-service/internal/ledger/repository"
	ledgerusecase "github.com/terra-footwear/terra-stock-service/internal/ledger/usecase"
	orderrepo "github.com/terra-footwear/terra-stock-service/internal/order/repository"
	orderusecase "github.com/terra-footwear/terra-stock-service/internal/order/usecase"
	productrepo "github.com/terra-footwear/terra-stock-service/internal/product/repository"
	productusecase "github.com/terra-footwear/terra-stock-service/internal/product/usecase"

	alerthandler "github.com/terra-footwear/terra-stock-service/internal/alert/handler"
	ledgerhandler "github.com/terra-footwear/terra-stock-service/internal/ledger/handler"
	orderhandler "github.com/terra-footwear/terra-stock-service/internal/order/handler"
	producthandler "github.com/terra-footwear/terra-stock-service/internal/product/handler"

	"github.com/terra-footwear/terra-stock-service/internal/order/listener"
	"github.com/terra-footwear/terra-stock-service/pkg/broker"
	"github.com/terra-footwear/terra-stock-service/pkg/cache"
	"github.com/terra-footwear/terra-stock-service/pkg/database/postgres"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
	"github.com/terra-footwear/terra-stock-service/pkg/search"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	cfg := config.LoadEnv()
	isDev := cfg.Server.AppEnv == "dev"

	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     isDev,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer log.Sync()

	db, err := postgres.NewPostgres(&postgres.Config{
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
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Search is best effort. The service runs without it, product search
	// just returns unavailable.
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		log.Warn("elasticsearch unavailable, search disabled", zap.Error(err))
		esClient = nil
	}

	alertProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AlertsTopic,
	})
	defer alertProducer.Close()

	orderConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer orderConsumer.Close()

	productRepo := productrepo.NewPGRepository(db)
	alertRepo := alertrepo.NewPGRepository(db)
	ledgerRepo := ledgerrepo.NewPGRepository(db)
	orderRepo := orderrepo.NewPGRepository(db)

	alertUC := alertusecase.NewAlertUseCase(alertRepo, ledgerRepo, alertProducer, log, cfg.Stock.RestockMultiplier)
	ledgerUC := ledgerusecase.NewLedgerUseCase(
		ledgerRepo, productRepo, alertUC, redisClient, log,
		time.Duration(cfg.Stock.LockTTLSeconds)*time.Second, cfg.Stock.LockRetries,
	)
	productUC := productusecase.NewProductUseCase(productRepo, ledgerUC, redisClient, esClient, log, cfg.Stock.DefaultLowStockThreshold)
	orderUC := orderusecase.NewOrderUseCase(orderRepo, productRepo, ledgerUC, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderListener := listener.NewOrderListener(orderConsumer, orderUC, log)
	go orderListener.Run(ctx)

	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	producthandler.NewProductHandler(productUC, log).RegisterRoutes(api)
	ledgerhandler.NewLedgerHandler(ledgerUC, log).RegisterRoutes(api)
	alerthandler.NewAlertHandler(alertUC, log).RegisterRoutes(api)
	orderhandler.NewOrderHandler(orderUC, log).RegisterRoutes(api)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
