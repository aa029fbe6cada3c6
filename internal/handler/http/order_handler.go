package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/bookstore-api/internal/order"
)

type PlaceOrderRequest struct {
	CartID    uuid.UUID `json:"cart_id" validate:"required"`
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

type PlaceOrderResponse struct {
	Message    string          `json:"message"`
	OrderCode  string          `json:"order_code"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handlePlaceOrder)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{code}", h.handleGetOrderByCode)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	var requestPayload PlaceOrderRequest

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

	placedOrder, err := h.service.PlaceOrder(r.Context(), claims.UserID, requestPayload.CartID, requestPayload.AddressID)
	if err != nil {
		var stockErr *order.InsufficientStockError
		switch {
		case errors.Is(err, order.ErrCartNotFound):
			respondWithError(w, http.StatusNotFound, "Cart line not found")
		case errors.Is(err, order.ErrBookNotFound):
			respondWithError(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, order.ErrAddressNotFound):
			respondWithError(w, http.StatusNotFound, "Address not found")
		case errors.As(err, &stockErr):
			respondWithJSON(w, http.StatusConflict, map[string]interface{}{
				"error":     "Insufficient stock",
				"available": stockErr.Available,
			})
		default:
			log.Error().Err(err).Msg("Failed to place order via service")
			respondWithError(w, http.StatusInternalServerError, "Failed to place order")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, PlaceOrderResponse{
		Message:    "Order successfully placed",
		OrderCode:  placedOrder.Code,
		TotalPrice: placedOrder.TotalPrice,
	})
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	orders, err := h.service.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
	})
}

func (h *OrderHandler) handleGetOrderByCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Order code is required")
		return
	}

	foundOrder, err := h.service.GetByCode(r.Context(), code, claims.UserID)
	if err != nil {
		clientMessage := "Failed to get order"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		} else {
			log.Error().Err(err).Msg("Failed to get order by code via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundOrder)
}
