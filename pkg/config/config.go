package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds
const (
	SourceLocal    = "local"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
	SourceHTTP     = "http"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Snapshot source
	Data DataConfig

	// Database (DATA_SOURCE=postgres)
	Database DatabaseConfig

	// Object storage (DATA_SOURCE=s3)
	S3 S3Config

	// Redis memoization layer
	Redis RedisConfig

	// Screening
	ScreenConfigPath string

	// API
	API APIConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DataConfig selects where quarterly snapshots are loaded from
type DataConfig struct {
	Source          string // local, postgres, s3, http
	Dir             string // local directory holding *_analysis files
	URL             string // base URL for the http source
	CacheTTL        time.Duration
	RefreshSchedule string // cron expression (with seconds)
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// S3Config holds S3-compatible object storage configuration
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// APIConfig holds HTTP API limits
type APIConfig struct {
	RateLimit  float64 // requests per second, 0 disables limiting
	RateBurst  int
	SessionTTL time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Data: DataConfig{
			Source:          getEnv("DATA_SOURCE", SourceLocal),
			Dir:             getEnv("DATA_DIR", "data/output"),
			URL:             getEnv("DATA_URL", ""),
			CacheTTL:        getEnvAsDuration("CACHE_TTL", "1h"),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 0 * * * *"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "ap-southeast-1"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Prefix:    getEnv("S3_PREFIX", "data"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		ScreenConfigPath: getEnv("SCREEN_CONFIG", ""),

		API: APIConfig{
			RateLimit:  getEnvAsFloat("API_RATE_LIMIT", 20),
			RateBurst:  getEnvAsInt("API_RATE_BURST", 40),
			SessionTTL: getEnvAsDuration("SESSION_TTL", "2h"),

			ReadTimeout:     getEnvAsDuration("API_READ_TIMEOUT", "15s"),
			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", "60s"),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", "30s"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set for the chosen source
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Source {
	case SourceLocal:
		if c.Data.Dir == "" {
			return fmt.Errorf("DATA_DIR is required for the local source")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres source")
		}
	case SourceS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 source")
		}
	case SourceHTTP:
		if c.Data.URL == "" {
			return fmt.Errorf("DATA_URL is required for the http source")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: local, postgres, s3, http")
	}

	if c.Data.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	if c.API.ReadTimeout < 0 || c.API.WriteTimeout < 0 || c.API.ShutdownTimeout < 0 {
		return fmt.Errorf("API timeouts must not be negative")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
