package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/repsync/internal/config"
	"github.com/mansoorceksport/repsync/internal/logging"
	"github.com/mansoorceksport/repsync/internal/server"
	"github.com/mansoorceksport/repsync/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.JSON)
	if err := cfg.ValidateAPI(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logrus.Info("Starting RepSync ingest API...")

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.FromAppConfig(cfg.OTEL, "repsync-api"))
	if err != nil {
		logrus.Warnf("Failed to initialize OpenTelemetry: %v", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				logrus.WithError(err).Error("failed to flush telemetry")
			}
		}()
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The idempotency cache is an optimisation; the repository still deduplicates
		logrus.Warnf("Redis unavailable, idempotent replays will hit the database: %v", err)
	} else {
		logrus.Info("✓ Redis connected")
	}

	var deps server.APIDependencies
	switch cfg.Server.Backend {
	case config.BackendMemory:
		logrus.Warn("Using in-memory storage, workout logs are lost on restart")
		deps = server.NewMemoryAPIDependencies(cfg, redisClient)
	default:
		mongoClient := connectMongo(cfg)
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logrus.Errorf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		deps = server.NewMongoAPIDependencies(cfg, mongoClient.Database(cfg.MongoDB.Database), redisClient)
	}

	app := server.NewAPIApp(deps)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logrus.Info("Shutting down gracefully...")
		app.Shutdown()
	}()

	logrus.Infof("🚀 Ingest API starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}

// connectMongo connects with OpenTelemetry instrumentation and verifies the connection
func connectMongo(cfg *config.Config) *mongo.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	mongoClient, err := mongo.Connect(ctx, mongoOpts)
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		logrus.Fatalf("Failed to ping MongoDB: %v", err)
	}
	logrus.Info("✓ MongoDB connected")
	return mongoClient
}
