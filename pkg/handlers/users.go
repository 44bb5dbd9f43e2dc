package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/auth"
	"github.com/botslatam/admin-engine/pkg/models"
	"github.com/botslatam/admin-engine/pkg/services"
)

// UpdateUserRequest is the request body for updating a user.
// All fields are optional; only the fields present are changed.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// UsersHandler handles user CRUD HTTP requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
// All routes require authentication; deleting a user requires the admin role.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/v1/users", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/v1/users/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/v1/users/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/v1/users/{id}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/v1/users
// Supports pagination (skip, limit) and optional name/email filters.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.UserFilter{
		Name:  q.Get("name"),
		Email: q.Get("email"),
	}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_skip", "skip must be a non-negative integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.Limit = n
	}

	users, err := h.userService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_failed", "Failed to list users"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if users == nil {
		users = []*models.User{}
	}
	if err := WriteJSON(w, http.StatusOK, users); err != nil {
		h.logger.Error("Failed to encode users response", zap.Error(err))
	}
}

// Get handles GET /api/v1/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get user", zap.Int64("user_id", id), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_failed", "Failed to get user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// Update handles PUT /api/v1/users/{id}
// Only the fields present in the body are changed. Changing the role
// requires the caller to be an admin.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	update := services.UserUpdate{Name: req.Name, Email: req.Email, Role: req.Role}
	user, err := h.userService.Update(r.Context(), id, update, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
		case errors.Is(err, apperrors.ErrForbidden):
			err = ErrorResponse(w, http.StatusForbidden, "forbidden", "Only an admin can change a user's role")
		case errors.Is(err, apperrors.ErrInvalidRole):
			err = ErrorResponse(w, http.StatusBadRequest, "invalid_role", "Invalid role. Must be one of: user, admin")
		case errors.Is(err, apperrors.ErrEmailTaken):
			err = ErrorResponse(w, http.StatusBadRequest, "email_taken", "Email is already registered")
		default:
			h.logger.Error("Failed to update user", zap.Int64("user_id", id), zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "update_failed", "Failed to update user")
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// Delete handles DELETE /api/v1/users/{id}
// Admin only; enforced by the routing middleware.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete user", zap.Int64("user_id", id), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_failed", "Failed to delete user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "User deleted"}); err != nil {
		h.logger.Error("Failed to encode delete response", zap.Error(err))
	}
}
