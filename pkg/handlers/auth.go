package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/auth"
	"github.com/botslatam/admin-engine/pkg/services"
)

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Activate2FAResponse carries the provisioning QR (base64 PNG) and the
// TOTP secret for manual entry.
type Activate2FAResponse struct {
	QR     string `json:"qr"`
	Secret string `json:"secret"`
}

// AuthHandler handles registration, login and 2FA activation.
type AuthHandler struct {
	userService services.UserService
	authService auth.Service
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userService services.UserService, authService auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/v1/register", h.Register)
	mux.HandleFunc("POST /api/v1/login", h.Login)
	mux.HandleFunc("POST /api/v1/users/{id}/2fa/activate",
		authMiddleware.RequireAuth(h.Activate2FA))
}

// Register handles POST /api/v1/register
// Creates a new account with role "user".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "Name, email and password are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			if err := ErrorResponse(w, http.StatusBadRequest, "email_taken", "Email is already registered"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to register user", zap.String("email", req.Email), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "register_failed", "Failed to register user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// Login handles POST /api/v1/login
// Verifies credentials (and TOTP code when 2FA is active) and issues a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials or 2FA code"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to log in user", zap.String("email", req.Email), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to log in"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "token_failed", "Failed to issue token"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, LoginResponse{AccessToken: token, TokenType: "bearer"}); err != nil {
		h.logger.Error("Failed to encode login response", zap.Error(err))
	}
}

// Activate2FA handles POST /api/v1/users/{id}/2fa/activate
// Generates a TOTP secret for the user and returns it with a QR code.
func (h *AuthHandler) Activate2FA(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	secret, qr, err := h.userService.Activate2FA(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to activate 2FA", zap.Int64("user_id", userID), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "activate_2fa_failed", "Failed to activate 2FA"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := Activate2FAResponse{
		QR:     base64.StdEncoding.EncodeToString(qr),
		Secret: secret,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode 2FA response", zap.Error(err))
	}
}
