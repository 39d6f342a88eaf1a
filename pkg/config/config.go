package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Fundamentals store
	Store StoreConfig

	// Research query
	Research ResearchConfig

	// Logging
	LogLevel  string
	LogFormat string

	// API 요청 제한 (초당)
	APIRateLimit float64
	APIRateBurst int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StoreConfig selects where fundamentals history is read from
type StoreConfig struct {
	Backend    string // postgres, badger, memory
	BadgerPath string
	CacheTTL   time.Duration // Redis window cache TTL (0 = 캐시 안 함)
}

// ResearchConfig holds research query defaults
type ResearchConfig struct {
	ConfigPath string // YAML query definition (비어 있으면 기본 쿼리)
	Industry   string // 비어 있으면 쿼리 파일 값 사용
	Quarters   int    // -1이면 쿼리 파일 값 사용
	Schedule   string // cron expression with seconds field
}

// Overrides replaces env values before validation (CLI flags)
type Overrides struct {
	Env          string
	StoreBackend string
	ConfigPath   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return LoadWithOverrides(Overrides{})
}

// LoadWithOverrides reads configuration from environment variables, then applies
// non-empty overrides before validating.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func LoadWithOverrides(o Overrides) (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "aegis_research"),
			User:            getEnv("DB_USER", "aegis_research"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", StorePostgres),
			BadgerPath: getEnv("BADGER_PATH", "data/fundamentals"),
			CacheTTL:   getEnvAsDuration("STORE_CACHE_TTL", "24h"),
		},

		Research: ResearchConfig{
			ConfigPath: getEnv("RESEARCH_CONFIG", ""),
			Industry:   getEnv("RESEARCH_INDUSTRY", ""),
			Quarters:   getEnvAsInt("RESEARCH_QUARTERS", -1),
			Schedule:   getEnv("RESEARCH_SCHEDULE", "0 30 18 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		APIRateLimit: getEnvAsFloat("API_RATE_LIMIT", 10),
		APIRateBurst: getEnvAsInt("API_RATE_BURST", 20),
	}

	if o.Env != "" {
		cfg.Env = o.Env
	}
	if o.StoreBackend != "" {
		cfg.Store.Backend = o.StoreBackend
	}
	if o.ConfigPath != "" {
		cfg.Research.ConfigPath = o.ConfigPath
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Store.Backend {
	case StorePostgres:
		// Database URL is required
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	case StoreBadger:
		if c.Store.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for STORE_BACKEND=badger")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: postgres, badger, memory")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Research.Quarters < -1 {
		return fmt.Errorf("RESEARCH_QUARTERS must be >= 0")
	}

	if c.APIRateLimit <= 0 || c.APIRateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
