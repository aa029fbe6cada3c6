package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/bookstore-api/internal/book"
)

type BookRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Author      string          `json:"author" validate:"required,min=2,max=300"`
	Description string          `json:"description" validate:"required,min=5,max=2000"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
}

type BookHandler struct {
	service  book.Service
	validate *validator.Validate
}

func NewBookHandler(service book.Service) *BookHandler {
	return &BookHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *BookHandler) RegisterRoutes(router chi.Router) {
	router.Get("/books", h.handleListBooks)
}

// RegisterAdminRoutes registers write operations; the caller wraps them with
// RequireRole(admin).
func (h *BookHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/books", h.handleAddBook)
	router.Put("/books/{id}", h.handleUpdateBook)
	router.Delete("/books/{id}", h.handleDeleteBook)
}

func (h *BookHandler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	var requestPayload BookRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	domainBook := book.Book{
		Name:        requestPayload.Name,
		Author:      requestPayload.Author,
		Description: requestPayload.Description,
		ImageURL:    requestPayload.ImageURL,
		Price:       requestPayload.Price,
		Quantity:    requestPayload.Quantity,
		UserID:      claims.UserID,
	}

	createdBook, err := h.service.Add(r.Context(), &domainBook)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add book via service")

		clientMessage := "Failed to add book"
		if errors.Is(err, book.ErrNameExists) {
			clientMessage = "Book already exists in store"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdBook)
}

func (h *BookHandler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	bookID, err := uuid.FromString(idParam)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload BookRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	domainBook := book.Book{
		ID:          bookID,
		Name:        requestPayload.Name,
		Author:      requestPayload.Author,
		Description: requestPayload.Description,
		ImageURL:    requestPayload.ImageURL,
		Price:       requestPayload.Price,
		Quantity:    requestPayload.Quantity,
	}

	if err := h.service.Update(r.Context(), &domainBook); err != nil {
		log.Error().Err(err).Msg("Failed to update book via service")

		clientMessage := "Failed to update book"
		switch {
		case errors.Is(err, book.ErrNotFound):
			clientMessage = "Book not found"
		case errors.Is(err, book.ErrNameExists):
			clientMessage = "Book already exists in store"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	bookID, err := uuid.FromString(idParam)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.Delete(r.Context(), bookID); err != nil {
		log.Error().Err(err).Msg("Failed to delete book via service")

		clientMessage := "Failed to delete book"
		if errors.Is(err, book.ErrNotFound) {
			clientMessage = "Book not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	books, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list books")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"books": books,
	})
}
