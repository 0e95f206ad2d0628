package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	httpadapter "github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/http"
	natsadapter "github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/messaging/nats"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/repository/cache"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/repository/mongodb"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/storage/s3"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/usecase"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/config"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer appLogger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background()) //nolint:errcheck
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		appLogger.Fatal("MongoDB ping failed", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	productRepo := mongodb.NewProductRepository(db)

	productCache, err := cache.NewProductCache(cfg.RedisAddress)
	if err != nil {
		appLogger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer productCache.Close() //nolint:errcheck

	imageStorage, err := s3.NewImageStorage(
		cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey,
		cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger,
	)
	if err != nil {
		appLogger.Fatal("failed to initialize image storage", zap.Error(err))
	}

	publisher, err := natsadapter.NewPublisher(cfg.NATSURL)
	if err != nil {
		appLogger.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()
	notifier := natsadapter.NewNotifierFromPublisher(publisher, appLogger)

	metricsManager := metrics.NewManager("catalog")

	catalogUC := usecase.NewCatalogUsecase(productRepo, notifier, appLogger, cfg.RequestTimeout)
	listingUC := usecase.NewListingUsecase(
		productRepo, imageStorage, productCache, publisher, notifier,
		catalogUC, appLogger, cfg.RequestTimeout,
	)

	handler := httpadapter.NewHandler(catalogUC, listingUC, appLogger, metricsManager)
	router := httpadapter.NewRouter(handler, cfg.JWTSecret, appLogger, metricsManager)
	server := httpadapter.NewServer(cfg.HTTPPort, router, appLogger)

	go func() {
		if err := metrics.StartServer(cfg.MetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		appLogger.Info("HTTP server starting", zap.String("port", cfg.HTTPPort))
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("stopped")
}
