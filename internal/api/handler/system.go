// internal/api/handler/system.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/opsnoopop/api-go-mysql/internal/api/types"
)

// Pinger reports whether the database is reachable. *db.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the service-level endpoints.
type SystemHandler struct {
	pinger Pinger
	logger *slog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(pinger Pinger, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		pinger: pinger,
		logger: logger,
	}
}

// Root greets the caller.
// GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, types.MessageResponse{
		Message: "Hello World from Go chi MySQL",
	})
}

// Health reports whether the database answers a ping.
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Warn("Health check failed", "error", err)
		respondWithDetail(w, h.logger, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.HealthResponse{Status: "ok"})
}

// NotFound answers requests for paths no route matches.
func (h *SystemHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondWithDetail(w, h.logger, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers requests whose path matches but whose method does not.
func (h *SystemHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondWithDetail(w, h.logger, http.StatusMethodNotAllowed, "Method Not Allowed")
}
