package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/auth"
	"github.com/mberk/pdfshelf-be/internal/services"
)

// BookHandler handles HTTP requests for the shared PDF library.
type BookHandler struct {
	service services.BookServiceProvider
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(service services.BookServiceProvider) *BookHandler {
	return &BookHandler{service: service}
}

// CreateBookPayload defines the structure for upload requests.
type CreateBookPayload struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	PdfBase64      string `json:"pdfBase64"`
	PdfFileName    string `json:"pdfFileName"`
	PdfSize        int64  `json:"pdfSize"`
	ThumbnailImage string `json:"thumbnailImage"`
}

// Create handles a new PDF upload.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var payload CreateBookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Title == "" || payload.Description == "" || payload.PdfBase64 == "" ||
		payload.PdfFileName == "" || payload.PdfSize == 0 {
		respondMessage(w, http.StatusBadRequest, "Please fill in all fields")
		return
	}

	book, err := h.service.Create(r.Context(), user.ID, services.CreateBookInput{
		Title:          payload.Title,
		Description:    payload.Description,
		PdfBase64:      payload.PdfBase64,
		PdfFileName:    payload.PdfFileName,
		PdfSize:        payload.PdfSize,
		ThumbnailImage: payload.ThumbnailImage,
	})
	if err != nil {
		var uploadErr *services.UploadError
		if errors.As(err, &uploadErr) {
			respondMessage(w, http.StatusBadRequest, "Failed to upload PDF: "+uploadErr.Error())
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create book")
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusCreated, book)
}

// GetAll returns one page of the shared library.
func (h *BookHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books")
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetMine returns all of the caller's own books.
func (h *BookHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	books, err := h.service.ListByUser(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list user books")
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, books)
}

// Update edits a book's title and description. Only the owner may edit.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	id := chi.URLParam(r, "id")

	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(payload.Title) == "" {
		respondMessage(w, http.StatusBadRequest, "Title is required")
		return
	}

	book, err := h.service.Update(r.Context(), id, user.ID, payload.Title, payload.Description)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			respondMessage(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, services.ErrNotOwner):
			respondMessage(w, http.StatusUnauthorized, "You are not authorized to edit this book")
		default:
			log.Error().Err(err).Str("book_id", id).Msg("Failed to update book")
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Book updated successfully",
		"book":    book,
	})
}

// Delete removes a book. Only the owner may delete.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id, user.ID); err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			respondMessage(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, services.ErrNotOwner):
			respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		default:
			log.Error().Err(err).Str("book_id", id).Msg("Failed to delete book")
			respondMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondMessage(w, http.StatusOK, "Book deleted successfully")
}

// TestUpload echoes the field names of the request body. Diagnostic endpoint
// for the mobile client's upload debugging screen.
func (h *BookHandler) TestUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := make([]string, 0, len(body))
	for key := range body {
		fields = append(fields, key)
	}
	sort.Strings(fields)

	respondJSON(w, http.StatusOK, map[string]any{
		"message":        "Test successful",
		"user":           user.ID,
		"receivedFields": fields,
	})
}
