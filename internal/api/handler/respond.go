// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/opsnoopop/api-go-mysql/internal/api/types"
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 30 * time.Second

// Helper function to send JSON responses.
func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send an error body.
func respondWithDetail(w http.ResponseWriter, logger *slog.Logger, code int, detail string) {
	respondWithJSON(w, logger, code, types.ErrorResponse{Detail: detail})
}
