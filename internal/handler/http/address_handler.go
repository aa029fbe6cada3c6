package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mkuznetsov/bookstore-api/internal/address"
)

type AddAddressRequest struct {
	Address     string `json:"address" validate:"required,min=2,max=600"`
	City        string `json:"city" validate:"required,min=2,max=100"`
	State       string `json:"state" validate:"required,min=2,max=100"`
	Landmark    string `json:"landmark" validate:"required,min=2,max=100"`
	Pincode     string `json:"pincode" validate:"required,min=4,max=20"`
	AddressType string `json:"address_type" validate:"required,min=2,max=100"`
}

type AddressHandler struct {
	service  address.Service
	validate *validator.Validate
}

func NewAddressHandler(service address.Service) *AddressHandler {
	return &AddressHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *AddressHandler) RegisterRoutes(router chi.Router) {
	router.Post("/addresses", h.handleAddAddress)
	router.Get("/addresses", h.handleListAddresses)
}

func (h *AddressHandler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	var requestPayload AddAddressRequest

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

	domainAddress := address.Address{
		UserID:      claims.UserID,
		Address:     requestPayload.Address,
		City:        requestPayload.City,
		State:       requestPayload.State,
		Landmark:    requestPayload.Landmark,
		Pincode:     requestPayload.Pincode,
		AddressType: requestPayload.AddressType,
	}

	createdAddress, err := h.service.Add(r.Context(), &domainAddress)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add address via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to add address")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdAddress)
}

func (h *AddressHandler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	addresses, err := h.service.List(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list addresses via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list addresses")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"addresses": addresses,
	})
}
