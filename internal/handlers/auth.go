package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"moment-backend/internal/models"
	"moment-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// Register handles POST /api/v1/auth/register. The route is public, but a
// caller may present a bearer token anyway; an authenticated admin is then
// allowed to create another admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	actorRole, ok := h.callerRole(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Register(ctx, req, actorRole)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to register user")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, user)
}

// callerRole resolves the role from an optional Authorization header.
// No header means an anonymous regular-user registration; a header that is
// present but invalid is rejected rather than silently downgraded.
func (h *AuthHandler) callerRole(w http.ResponseWriter, r *http.Request) (models.Role, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return models.RoleUser, true
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
		return "", false
	}
	_, role, err := h.userService.ValidateJWT(parts[1])
	if err != nil {
		respondError(w, "Invalid token", http.StatusUnauthorized)
		return "", false
	}
	return role, true
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the authenticated user.
type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, user, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}
