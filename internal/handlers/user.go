package handlers

import (
	"encoding/json"
	"net/http"

	"moment-backend/internal/middleware"
	"moment-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, pageSize := parsePagination(r)

	users, total, err := h.userService.List(ctx, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		respondAppError(w, err)
		return
	}

	setPaginationHeaders(w, page, pageSize, total)
	respondJSON(w, http.StatusOK, users)
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	user, err := h.userService.Get(ctx, id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Update handles PATCH /api/v1/users/{id}. Partial update: absent fields
// keep their current values.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	targetID := chi.URLParam(r, "id")

	var req services.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Update(ctx, actorID, role, targetID, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", actorID).
			Str("target_id", targetID).
			Msg("Failed to update user")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfilePicture handles PUT /api/v1/users/{id}/profile-picture.
// Multipart form with a profilePicture file.
func (h *UserHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	targetID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	upload, err := readUpload(r, "profilePicture")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.SetProfilePicture(ctx, actorID, role, targetID, upload)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", actorID).
			Str("target_id", targetID).
			Msg("Failed to update profile picture")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	targetID := chi.URLParam(r, "id")

	if err := h.userService.Delete(ctx, actorID, role, targetID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", actorID).
			Str("target_id", targetID).
			Msg("Failed to delete user")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", actorID).Str("target_id", targetID).Msg("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

// PushTokenRequest represents the request body for updating a push token
type PushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update push token")
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
