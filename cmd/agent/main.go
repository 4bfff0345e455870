// Command agent is the on-device sync agent. It owns the in-progress workout,
// its crash backup and the write queue, and drains the queue into the ingest API
// whenever the backend is reachable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/repsync/internal/client"
	"github.com/mansoorceksport/repsync/internal/config"
	"github.com/mansoorceksport/repsync/internal/connectivity"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/logging"
	"github.com/mansoorceksport/repsync/internal/repository"
	"github.com/mansoorceksport/repsync/internal/server"
	"github.com/mansoorceksport/repsync/internal/service"
	"github.com/mansoorceksport/repsync/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.JSON)
	if err := cfg.ValidateAgent(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logrus.Info("Starting RepSync sync agent...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.FromAppConfig(cfg.OTEL, "repsync-agent"))
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

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()
	logrus.Infof("✓ Local store ready (%s)", cfg.Store.Backend)

	apiClient := client.NewClient(client.Config{
		BaseURL: cfg.Agent.APIBaseURL,
		Token:   cfg.Agent.DeviceToken,
		Timeout: cfg.Sync.SubmitTimeout,
	})
	prober := connectivity.NewProber(apiClient, cfg.Sync.ProbeInterval)

	queue := service.NewWriteQueue(store, apiClient, prober, service.RetryPolicyFromConfig(cfg.Sync))
	sessions := service.NewSessionService(apiClient, apiClient, service.NewSessionBackupStore(store), queue, cfg.Sync.SubmitTimeout)
	drainer := service.NewDrainer(queue)

	if pending := len(queue.GetQueue(ctx)); pending > 0 {
		logrus.Infof("%d workout logs waiting from a previous run", pending)
	}

	app := server.NewAgentApp(server.AgentDependencies{
		Sessions:     sessions,
		Queue:        queue,
		Drainer:      drainer,
		Connectivity: prober,
	})

	g, gctx := errgroup.WithContext(ctx)

	// Subscribe before the first probe so the initial offline->online transition is seen
	drainer.Watch(gctx, prober)
	g.Go(func() error { return drainer.Run(gctx) })
	g.Go(func() error { return prober.Run(gctx) })

	// SIGUSR1 is the foreground signal for headless installs
	g.Go(func() error {
		foreground := make(chan os.Signal, 1)
		signal.Notify(foreground, syscall.SIGUSR1)
		defer signal.Stop(foreground)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-foreground:
				logrus.Info("foreground signal received, requesting drain")
				drainer.Request()
			}
		}
	})

	g.Go(func() error {
		logrus.Infof("🚀 Agent listening on port %s", cfg.Agent.Port)
		return app.Listen(":" + cfg.Agent.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down gracefully...")
		return app.ShutdownWithTimeout(5 * time.Second)
	})

	if err := g.Wait(); err != nil {
		logrus.Errorf("Agent stopped: %v", err)
	}
}

// openStore builds the configured key-value store and its cleanup func
func openStore(ctx context.Context, cfg *config.Config) (domain.KeyValueStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, err
		}
		return repository.NewRedisKeyValueStore(redisClient, cfg.Store.KeyPrefix), func() { redisClient.Close() }, nil
	case config.StoreS3:
		store, err := repository.NewS3KeyValueStore(ctx, cfg.S3, cfg.Store.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.StoreMemory:
		logrus.Warn("Using in-memory store, queued workouts are lost on restart")
		return repository.NewMemoryKeyValueStore(), func() {}, nil
	default:
		store, err := repository.OpenSQLiteKeyValueStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logrus.Errorf("Error closing sqlite store: %v", err)
			}
		}, nil
	}
}
