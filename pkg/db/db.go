// pkg/db/db.go
package db

import (
	"fmt"
	"time"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds database connection and pool configuration.
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Charset  string
	SSLMode  string // PostgreSQL only

	PoolMin         int           // Connections opened at startup and kept idle
	PoolMax         int           // Hard upper bound on open connections
	AcquireTimeout  time.Duration // How long Acquire waits for a free connection
	QueryTimeout    time.Duration // Upper bound on a single statement
	ConnMaxLifetime time.Duration
}

// Validate checks that the configuration can be used to build a pool.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.Host == "" || c.User == "" || c.Password == "" || c.DBName == "" || c.Charset == "" {
		return fmt.Errorf("database host, user, password, name and charset must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.Port)
	}
	if c.PoolMin < 1 {
		return fmt.Errorf("pool minimum size must be at least 1, got %d", c.PoolMin)
	}
	if c.PoolMax < c.PoolMin {
		return fmt.Errorf("pool maximum size %d is smaller than minimum %d", c.PoolMax, c.PoolMin)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("pool acquire timeout must be positive")
	}
	return nil
}

// DSN returns the driver-specific data source name for the configuration.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverMySQL:
		return mysqlDSN(c), nil
	case DriverPostgres:
		return postgresDSN(c), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", c.Driver)
}
