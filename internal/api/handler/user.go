// internal/api/handler/user.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/opsnoopop/api-go-mysql/internal/api/types"
	"github.com/opsnoopop/api-go-mysql/internal/service"
	"github.com/opsnoopop/api-go-mysql/internal/util"
)

const maxBodyBytes = 1 << 20

// UserHandler handles HTTP requests related to user operations.
type UserHandler struct {
	service  service.UserService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc service.UserService, logger *slog.Logger) *UserHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &UserHandler{
		service:  svc,
		logger:   logger,
		validate: validate,
	}
}

// respondWithError maps service errors onto HTTP responses. Anything that is
// not a known client error is logged in full and reported as a generic 500.
func (h *UserHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error, logAttrs ...any) {
	switch {
	case util.IsError(err, util.ErrInvalidInput):
		respondWithDetail(w, h.logger, http.StatusUnprocessableEntity, "Invalid input provided")
	case util.IsError(err, util.ErrUserNotFound):
		respondWithDetail(w, h.logger, http.StatusNotFound, "User not found")
	case util.IsError(err, util.ErrDuplicateEntry):
		respondWithDetail(w, h.logger, http.StatusConflict, "Email already exists")
	default:
		attrs := append([]any{
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		}, logAttrs...)
		h.logger.Error("Database error", attrs...)
		respondWithDetail(w, h.logger, http.StatusInternalServerError, "Database error")
	}
}

// decodeJSONBody decodes exactly one JSON value from the request body.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// CreateUser handles the create user request.
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondWithDetail(w, h.logger, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			respondWithDetail(w, h.logger, http.StatusUnprocessableEntity, "validation failed on "+strings.Join(fields, ", "))
			return
		}
		respondWithDetail(w, h.logger, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		h.respondWithError(w, r, err, "email", req.Email)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, types.CreateUserResponse{
		Message: "User created successfully",
		UserID:  user.ID,
	})
}

// GetUser handles the get user request.
// GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		respondWithDetail(w, h.logger, http.StatusUnprocessableEntity, "User ID must be a positive integer")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, r, err, "user_id", userID)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, user)
}
