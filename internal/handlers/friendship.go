package handlers

import (
	"encoding/json"
	"net/http"

	"moment-backend/internal/middleware"
	"moment-backend/internal/models"
	"moment-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendshipHandler handles friendship-related HTTP requests
type FriendshipHandler struct {
	friendshipService *services.FriendshipService
}

// NewFriendshipHandler creates a new friendship handler
func NewFriendshipHandler(friendshipService *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: friendshipService}
}

// List handles GET /api/v1/friends
func (h *FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	page, pageSize := parsePagination(r)
	statusFilter := models.FriendshipStatus(r.URL.Query().Get("status"))

	friendships, total, err := h.friendshipService.List(ctx, userID, statusFilter, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friendships")
		respondAppError(w, err)
		return
	}

	setPaginationHeaders(w, page, pageSize, total)
	respondJSON(w, http.StatusOK, friendships)
}

// CreateFriendshipRequest represents the request body for a friend request
type CreateFriendshipRequest struct {
	FriendID string `json:"friendId"`
}

// Create handles POST /api/v1/friends
func (h *FriendshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateFriendshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FriendID == "" {
		respondError(w, "friendId is required", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Request(ctx, userID, req.FriendID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("friend_id", req.FriendID).
			Msg("Failed to create friend request")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", req.FriendID).
		Str("friendship_id", friendship.ID).
		Msg("Friend request created")

	respondJSON(w, http.StatusCreated, friendship)
}

// RespondRequest represents the request body for answering a friend request
type RespondRequest struct {
	Decision string `json:"decision"`
}

// Respond handles PATCH /api/v1/friends/{friendship_id}
func (h *FriendshipHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendshipID := chi.URLParam(r, "friendship_id")

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Respond(ctx, friendshipID, userID, req.Decision)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("friendship_id", friendshipID).
			Str("decision", req.Decision).
			Msg("Failed to respond to friend request")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friendship_id", friendshipID).
		Str("decision", req.Decision).
		Msg("Friend request answered")

	if friendship == nil {
		// Denied: the record is gone.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, friendship)
}

// Delete handles DELETE /api/v1/friends/{friendship_id}
func (h *FriendshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendshipID := chi.URLParam(r, "friendship_id")

	if err := h.friendshipService.Remove(ctx, friendshipID, userID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("friendship_id", friendshipID).
			Msg("Failed to delete friendship")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friendship_id", friendshipID).
		Msg("Friendship deleted")

	w.WriteHeader(http.StatusNoContent)
}
