// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	router "github.com/opsnoopop/api-go-mysql/internal/api"
	"github.com/opsnoopop/api-go-mysql/internal/api/handler"
	"github.com/opsnoopop/api-go-mysql/internal/config"
	"github.com/opsnoopop/api-go-mysql/internal/repository"
	"github.com/opsnoopop/api-go-mysql/internal/repository/mysql"
	"github.com/opsnoopop/api-go-mysql/internal/repository/postgres"
	"github.com/opsnoopop/api-go-mysql/internal/service"
	"github.com/opsnoopop/api-go-mysql/internal/util"
	"github.com/opsnoopop/api-go-mysql/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	Pool   *db.Pool

	// Repositories
	UserRepository repository.UserRepository

	// Services
	UserService service.UserService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
// A database that cannot be reached is fatal: no handler is built without a pool.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.",
		"db_driver", cfg.DB.Driver,
		"db_host", cfg.DB.Host,
		"db_name", cfg.DB.DBName,
		"pool_min", cfg.DB.PoolMin,
		"pool_max", cfg.DB.PoolMax)

	// 3. Open the connection pool
	pool, err := db.NewPool(ctx, app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Pool = pool
	app.Logger.Info("Database connection pool established.", "open_connections", pool.Stats().OpenConnections)

	// 4. Initialize Repositories
	app.UserRepository, err = newUserRepository(app.Config.DB.Driver)
	if err != nil {
		return err
	}
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	app.UserService = service.NewUserService(app.Pool, app.UserRepository)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	userHandler := handler.NewUserHandler(app.UserService, app.Logger)
	systemHandler := handler.NewSystemHandler(app.Pool, app.Logger)
	limiter := router.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	app.HTTPHandler = router.NewRouter(userHandler, systemHandler, limiter, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.", "rate_limited", limiter != nil)

	return nil
}

func newUserRepository(driver string) (repository.UserRepository, error) {
	switch driver {
	case db.DriverMySQL:
		return mysql.NewUserRepository(), nil
	case db.DriverPostgres:
		return postgres.NewUserRepository(), nil
	}
	return nil, fmt.Errorf("no user repository for driver %q", driver)
}

// Shutdown drains and closes the connection pool. Call it once, after the
// HTTP server has stopped accepting requests.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Pool != nil {
		stats := app.Pool.Stats()
		app.Logger.Info("Connection pool statistics",
			"open", stats.OpenConnections,
			"in_use", stats.InUse,
			"wait_count", stats.WaitCount,
			"wait_duration", stats.WaitDuration)
		if err := app.Pool.Close(ctx); err != nil {
			app.Logger.Error("Failed to close connection pool", "error", err)
			return fmt.Errorf("failed to close connection pool: %w", err)
		}
		app.Logger.Info("Connection pool closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
