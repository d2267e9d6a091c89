package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"moment-backend/internal/middleware"
	"moment-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes bounds the multipart form a publication may carry.
const maxUploadBytes = 32 << 20

// PublicationHandler handles publication-related HTTP requests
type PublicationHandler struct {
	publicationService *services.PublicationService
}

// NewPublicationHandler creates a new publication handler
func NewPublicationHandler(publicationService *services.PublicationService) *PublicationHandler {
	return &PublicationHandler{publicationService: publicationService}
}

// List handles GET /api/v1/publications. With a userId query parameter the
// response is that user's gated feed; without one it is the viewer's friend
// feed, or the un-gated listing for administrators.
func (h *PublicationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	targetUserID := r.URL.Query().Get("userId")
	page, pageSize := parsePagination(r)

	publications, total, err := h.publicationService.Feed(ctx, viewerID, role, targetUserID, page, pageSize)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", viewerID).
			Str("target_user_id", targetUserID).
			Msg("Failed to resolve feed")
		respondAppError(w, err)
		return
	}

	setPaginationHeaders(w, page, pageSize, total)
	respondJSON(w, http.StatusOK, publications)
}

// Get handles GET /api/v1/publications/{id}
func (h *PublicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	publication, err := h.publicationService.Get(ctx, id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, publication)
}

// Create handles POST /api/v1/publications. Multipart form with frontCamera
// and backCamera files plus longitude and latitude fields.
func (h *PublicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	front, err := readUpload(r, "frontCamera")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	back, err := readUpload(r, "backCamera")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	longitude, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil {
		respondError(w, "longitude is required", http.StatusBadRequest)
		return
	}
	latitude, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil {
		respondError(w, "latitude is required", http.StatusBadRequest)
		return
	}

	publication, err := h.publicationService.Create(ctx, userID, role, front, back, longitude, latitude)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create publication")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("publication_id", publication.ID).
		Msg("Publication created")

	respondJSON(w, http.StatusCreated, publication)
}

// Delete handles DELETE /api/v1/publications/{id}. Admin-only: once created,
// the only reason to delete a publication is moderation.
func (h *PublicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := h.publicationService.Delete(ctx, id); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("publication_id", id).
			Msg("Failed to delete publication")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("publication_id", id).
		Msg("Publication deleted")

	w.WriteHeader(http.StatusNoContent)
}

func readUpload(r *http.Request, field string) (services.ImageUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("%s image is required", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("failed to read %s image", field)
	}

	return services.ImageUpload{
		Filename:    header.Filename,
		ContentType: uploadContentType(header),
		Data:        data,
	}, nil
}

func uploadContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "image/jpeg"
}
