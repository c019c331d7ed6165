package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service           ServiceConfig
	Database          DatabaseConfig
	Redis             RedisConfig
	Storage           StorageConfig
	BackgroundRemoval BackgroundRemovalConfig
	Auth              AuthConfig
	Upload            UploadConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig selects and tunes the blob storage backend
type StorageConfig struct {
	// "postgres" stores blobs in the database, "redis" in Redis
	Backend string
}

// BackgroundRemovalConfig holds settings for the external removal API
type BackgroundRemovalConfig struct {
	BaseURL    string
	APIKey     string
	MaxRetries int
	BaseDelay  time.Duration
	// Timeout bounds one overall call including all retries
	Timeout time.Duration
}

// AuthConfig holds credential settings
type AuthConfig struct {
	// AnonSecret signs the anonymous-identity cookie (HS256)
	AnonSecret   string
	AnonTokenTTL time.Duration
	SessionTTL   time.Duration
}

// UploadConfig bounds inbound files
type UploadConfig struct {
	MaxSizeBytes int64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "cutout"),
			User:        getEnv("POSTGRES_USER", "cutout"),
			Password:    getEnv("POSTGRES_PASSWORD", "cutout"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "postgres"),
		},
		BackgroundRemoval: BackgroundRemovalConfig{
			BaseURL:    getEnv("REMOVAL_API_URL", "https://api.remove.bg/v1.0"),
			APIKey:     getEnv("REMOVAL_API_KEY", ""),
			MaxRetries: getEnvInt("REMOVAL_MAX_RETRIES", 2),
			BaseDelay:  getEnvDuration("REMOVAL_BASE_DELAY", 500*time.Millisecond),
			Timeout:    getEnvDuration("REMOVAL_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			AnonSecret:   getEnv("ANON_TOKEN_SECRET", "dev-secret-change-me"),
			AnonTokenTTL: getEnvDuration("ANON_TOKEN_TTL", 30*24*time.Hour),
			SessionTTL:   getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Upload: UploadConfig{
			MaxSizeBytes: getEnvInt64("UPLOAD_MAX_SIZE_BYTES", 10<<20),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	switch c.Storage.Backend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if c.Auth.AnonSecret == "" {
		return fmt.Errorf("anonymous token secret is required")
	}

	if c.Upload.MaxSizeBytes <= 0 {
		return fmt.Errorf("upload max size must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
