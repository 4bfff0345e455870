package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for the agent's local key-value store
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreS3     = "s3"
	StoreMemory = "memory"
)

// Persistence backends for the ingest API
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Agent   AgentConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
	Store   StoreConfig
	S3      S3Config
	Sync    SyncConfig
	JWT     JWTConfig
	OTEL    OTELConfig
	Log     LogConfig
}

// ServerConfig holds the ingest API server configuration
type ServerConfig struct {
	Port           string
	Backend        string // mongo, or memory for local development
	IdempotencyTTL time.Duration
}

// AgentConfig holds the on-device sync agent configuration
type AgentConfig struct {
	Port        string
	APIBaseURL  string // Ingest API the queue drains into
	DeviceToken string // Bearer token presented to the ingest API
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StoreConfig selects the agent's local key-value store
type StoreConfig struct {
	Backend    string // sqlite, redis, s3, memory
	SQLitePath string
	KeyPrefix  string
}

// S3Config holds S3-compatible object storage configuration
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// SyncConfig holds write queue and connectivity settings
type SyncConfig struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	MaxAttempts   int
	SubmitTimeout time.Duration
	ProbeInterval time.Duration
}

// JWTConfig holds the shared secret used to verify device tokens
type JWTConfig struct {
	Secret string
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	PathPrefix     string // Grafana Cloud serves OTLP under /otlp
	Insecure       bool   // plain HTTP, for a collector on localhost
	InstanceID     string
	Token          string
}

// LogConfig holds logrus settings
type LogConfig struct {
	Level string
	JSON  bool
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Backend:        getEnv("API_BACKEND", BackendMongo),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Agent: AgentConfig{
			Port:        getEnv("AGENT_PORT", "7070"),
			APIBaseURL:  getEnv("AGENT_API_BASE_URL", "http://localhost:8080"),
			DeviceToken: getEnv("AGENT_DEVICE_TOKEN", ""),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "repsync"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       int(getEnvAsInt64("REDIS_DB", 0)),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", StoreSQLite),
			SQLitePath: getEnv("STORE_SQLITE_PATH", "repsync.db"),
			KeyPrefix:  getEnv("STORE_KEY_PREFIX", "repsync:"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:8333"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "repsync-device"),
			AccessKey: getEnv("S3_ACCESS_KEY", "any"),
			SecretKey: getEnv("S3_SECRET_KEY", "any"),
		},
		Sync: SyncConfig{
			BaseDelay:     getEnvAsDuration("SYNC_BASE_DELAY", 5*time.Second),
			MaxDelay:      getEnvAsDuration("SYNC_MAX_DELAY", 300*time.Second),
			MaxAttempts:   int(getEnvAsInt64("SYNC_MAX_ATTEMPTS", 10)),
			SubmitTimeout: getEnvAsDuration("SYNC_SUBMIT_TIMEOUT", 15*time.Second),
			ProbeInterval: getEnvAsDuration("SYNC_PROBE_INTERVAL", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		OTEL: OTELConfig{
			Enabled:        getEnv("OTEL_ENABLED", "false") == "true",
			ServiceName:    getEnv("OTEL_SERVICE_NAME", ""),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			PathPrefix:     getEnv("OTEL_EXPORTER_OTLP_PATH_PREFIX", "/otlp"),
			Insecure:       getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false") == "true",
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnv("LOG_FORMAT", "text") == "json",
		},
	}

	return cfg, nil
}

// ValidateAPI checks that everything the ingest API needs is present
func (c *Config) ValidateAPI() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Server.Backend {
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported API_BACKEND %q", c.Server.Backend)
	}
	return nil
}

// ValidateAgent checks that everything the sync agent needs is present
func (c *Config) ValidateAgent() error {
	if c.Agent.APIBaseURL == "" {
		return fmt.Errorf("AGENT_API_BASE_URL is required")
	}
	if c.Agent.DeviceToken == "" {
		return fmt.Errorf("AGENT_DEVICE_TOKEN is required")
	}
	switch c.Store.Backend {
	case StoreSQLite, StoreRedis, StoreS3, StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Sync.MaxAttempts <= 0 {
		return fmt.Errorf("SYNC_MAX_ATTEMPTS must be positive")
	}
	if c.Sync.BaseDelay <= 0 || c.Sync.MaxDelay < c.Sync.BaseDelay {
		return fmt.Errorf("SYNC_BASE_DELAY must be positive and not exceed SYNC_MAX_DELAY")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("5s", "2m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
