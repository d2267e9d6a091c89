package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"moment-backend/internal/apperr"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondAppError maps a service error to its HTTP status via its kind.
func respondAppError(w http.ResponseWriter, err error) {
	respondError(w, err.Error(), apperr.HTTPStatus(err))
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// parsePagination reads page and pageSize query parameters, falling back to
// the defaults for missing or out-of-range values so the Pagination-*
// headers always reflect what was actually applied.
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 10
	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("pageSize"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			pageSize = parsed
		}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}

// setPaginationHeaders reports pagination metadata on the response headers,
// leaving the body a bare array.
func setPaginationHeaders(w http.ResponseWriter, page, pageSize, total int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	w.Header().Set("Pagination-Page", strconv.Itoa(page))
	w.Header().Set("Pagination-PageSize", strconv.Itoa(pageSize))
	w.Header().Set("Pagination-Total", strconv.Itoa(total))
	w.Header().Set("Pagination-TotalPages", strconv.Itoa(totalPages))
}
