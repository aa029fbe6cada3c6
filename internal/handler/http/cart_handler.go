package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkuznetsov/bookstore-api/internal/book"
	"github.com/mkuznetsov/bookstore-api/internal/cart"
)

type AddToCartRequest struct {
	BookID   uuid.UUID `json:"book_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"omitempty,gte=1"`
}

type UpdateCartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Post("/cart", h.handleAddToCart)
	router.Patch("/cart/{id}", h.handleUpdateQuantity)
	router.Delete("/cart/{id}", h.handleRemove)
	router.Get("/cart", h.handleList)
}

func (h *CartHandler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	var requestPayload AddToCartRequest

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

	line, err := h.service.AddBook(r.Context(), claims.UserID, requestPayload.BookID, requestPayload.Quantity)
	if err != nil {
		clientMessage := "Failed to add book to cart"
		switch {
		case errors.Is(err, book.ErrNotFound):
			clientMessage = "Book not found"
		case errors.Is(err, cart.ErrOutOfStock):
			clientMessage = "Out of stock"
		case errors.Is(err, cart.ErrAlreadyInCart):
			clientMessage = "Book already added in cart"
		default:
			log.Error().Err(err).Msg("Failed to add book to cart via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	idParam := chi.URLParam(r, "id")
	cartID, err := uuid.FromString(idParam)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateCartQuantityRequest

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

	if err := h.service.AddQuantity(r.Context(), cartID, claims.UserID, requestPayload.Quantity); err != nil {
		clientMessage := "Failed to update cart quantity"
		if errors.Is(err, cart.ErrNotFound) {
			clientMessage = "Item not found in cart"
		} else {
			log.Error().Err(err).Msg("Failed to update cart quantity via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	idParam := chi.URLParam(r, "id")
	cartID, err := uuid.FromString(idParam)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.Remove(r.Context(), cartID, claims.UserID); err != nil {
		clientMessage := "Failed to remove book from cart"
		if errors.Is(err, cart.ErrNotFound) {
			clientMessage = "Book not found in cart"
		} else {
			log.Error().Err(err).Msg("Failed to remove cart line via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleList(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	items, err := h.service.List(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cart via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list cart")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cart": items,
	})
}
