// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/opsnoopop/api-go-mysql/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string
	RateLimit  RateLimitConfig
	DB         db.Config
}

// RateLimitConfig configures the request limiter. RPS of zero disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoadConfig loads configuration from environment variables, after
// merging in a .env file from the working directory if one exists.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	dbPort, err := getInt("DB_PORT", 3306)
	if err != nil {
		return nil, err
	}
	poolMin, err := getInt("DB_POOL_MIN", 1)
	if err != nil {
		return nil, err
	}
	poolMax, err := getInt("DB_POOL_MAX", 10)
	if err != nil {
		return nil, err
	}
	acquireTimeout, err := getDuration("DB_POOL_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	queryTimeout, err := getDuration("DB_QUERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	connMaxLifetime, err := getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	rps, err := getFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return nil, err
	}
	burst, err := getInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		ServerPort: getString("SERVER_PORT", "8080"),
		LogLevel:   getString("LOG_LEVEL", "info"),
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		DB: db.Config{
			Driver:          getString("DB_DRIVER", db.DriverMySQL),
			Host:            getString("DB_HOST", "container_mysql"),
			Port:            dbPort,
			User:            getString("DB_USER", "testuser"),
			Password:        getString("DB_PASSWORD", "testpass"),
			DBName:          getString("DB_NAME", "testdb"),
			Charset:         getString("DB_CHARSET", "utf8mb4"),
			SSLMode:         getString("DB_SSLMODE", "disable"),
			PoolMin:         poolMin,
			PoolMax:         poolMax,
			AcquireTimeout:  acquireTimeout,
			QueryTimeout:    queryTimeout,
			ConnMaxLifetime: connMaxLifetime,
		},
	}

	if err := cfg.DB.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	if cfg.RateLimit.RPS < 0 || (cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst < 1) {
		return nil, fmt.Errorf("invalid rate limit: rps=%v burst=%d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
