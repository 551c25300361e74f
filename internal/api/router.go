// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/opsnoopop/api-go-mysql/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
// A nil limiter disables rate limiting.
func NewRouter(userHandler *handler.UserHandler, systemHandler *handler.SystemHandler, limiter *rate.Limiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Bound the time spent on a single request

	r.NotFound(systemHandler.NotFound)
	r.MethodNotAllowed(systemHandler.MethodNotAllowed)

	r.Get("/", systemHandler.Root)
	r.Get("/health", systemHandler.Health)

	// User API routes
	r.Route("/users", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimit(limiter, logger))
		}
		r.NotFound(systemHandler.NotFound)
		r.MethodNotAllowed(systemHandler.MethodNotAllowed)
		r.Post("/", userHandler.CreateUser)
		r.Get("/{userID}", userHandler.GetUser)
	})

	return r
}
