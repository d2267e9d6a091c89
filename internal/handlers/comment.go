package handlers

import (
	"encoding/json"
	"net/http"

	"moment-backend/internal/middleware"
	"moment-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List handles GET /api/v1/publications/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicationID := chi.URLParam(r, "id")

	comments, err := h.commentService.ListByPublication(ctx, publicationID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

// CreateCommentRequest represents the request body for creating a comment
type CreateCommentRequest struct {
	Content       string  `json:"content"`
	ParentComment *string `json:"parentComment,omitempty"`
}

// Create handles POST /api/v1/publications/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	publicationID := chi.URLParam(r, "id")

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.commentService.Create(ctx, userID, publicationID, req.Content, req.ParentComment)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("publication_id", publicationID).
			Msg("Failed to create comment")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}

// Delete handles DELETE /api/v1/publications/{id}/comments/{comment_id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	commentID := chi.URLParam(r, "comment_id")

	if err := h.commentService.Delete(ctx, commentID, userID, role); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("comment_id", commentID).
			Msg("Failed to delete comment")
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
