package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/userdir/userdir/internal/middleware"
	"github.com/userdir/userdir/internal/model"
	"github.com/userdir/userdir/internal/service"
)

// UserHandler handles HTTP requests for the user directory.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.User
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.Append(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	middleware.LoggerFrom(r.Context(), h.logger).Info("user_appended",
		"user_id", user.ID,
		"strict", h.svc.Strict(),
	)

	writeJSON(w, http.StatusCreated, user)
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateID):
		writeError(w, http.StatusConflict, "DUPLICATE_ID", "User id already exists")
	case errors.Is(err, service.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "INVALID_USER", err.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
