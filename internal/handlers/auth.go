package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/internal/auth"
	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

// AuthService registers and signs in accounts.
type AuthService interface {
	Register(ctx context.Context, email, password, username string) (*account.User, string, error)
	Login(ctx context.Context, email, password string) (*account.User, string, error)
	Me(ctx context.Context, userID string) (*account.User, error)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *account.User `json:"user"`
	Token string        `json:"token,omitempty"`
}

type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewAuthHandler(a AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: logger}
}

// Register mounts:
//
//	POST /v1/auth/register
//	POST /v1/auth/login
//	GET  /v1/auth/me
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", h.handleLogin)
	mux.HandleFunc("GET /v1/auth/me", h.handleMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, token, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Username)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrEmailTaken):
		writeError(w, h.logger, http.StatusConflict, "Email already registered")
		return
	case errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrInvalidUsername),
		errors.Is(err, account.ErrWeakPassword):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	default:
		h.logger.Error("Registration failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to register")
		return
	}

	h.logger.Info("User registered", "user_id", u.ID)
	writeJSON(w, h.logger, http.StatusCreated, AuthResponse{User: u.Public(), Token: token})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, h.logger, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.Error("Login failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to log in")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, AuthResponse{User: u.Public(), Token: token})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	u, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load user", "user_id", userID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load user")
		return
	}
	if u == nil {
		writeError(w, h.logger, http.StatusUnauthorized, "User not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, AuthResponse{User: u.Public()})
}
