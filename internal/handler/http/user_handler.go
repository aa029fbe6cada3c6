package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkuznetsov/bookstore-api/internal/auth"
	"github.com/mkuznetsov/bookstore-api/internal/user"
)

type RegisterRequest struct {
	Role            string `json:"role" validate:"required,oneof=user admin"`
	FirstName       string `json:"first_name" validate:"required,min=2,max=50"`
	LastName        string `json:"last_name" validate:"required,min=2,max=50"`
	Phone           string `json:"phone" validate:"required,min=10"`
	Email           string `json:"email" validate:"required,email,max=100"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=100"`
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserHandler struct {
	service  user.Service
	revoker  auth.Revoker
	validate *validator.Validate
}

func NewUserHandler(service user.Service, revoker auth.Revoker) *UserHandler {
	return &UserHandler{
		service:  service,
		revoker:  revoker,
		validate: validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/register", h.handleRegister)
	router.Post("/auth/login", h.handleLogin)
	router.Post("/auth/forgot-password", h.handleForgotPassword)
}

// RegisterProtectedRoutes registers the routes that require a bearer token.
func (h *UserHandler) RegisterProtectedRoutes(router chi.Router) {
	router.Post("/auth/logout", h.handleLogout)
	router.Post("/auth/reset-password", h.handleResetPassword)
}

func (h *UserHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	if err := h.revoker.Revoke(r.Context(), claims); err != nil {
		log.Error().Err(err).Msg("Failed to revoke token on logout")
		respondWithError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode register request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	domainUser := user.User{
		Role:      requestPayload.Role,
		FirstName: requestPayload.FirstName,
		LastName:  requestPayload.LastName,
		Phone:     requestPayload.Phone,
		Email:     requestPayload.Email,
	}

	createdUser, err := h.service.Register(r.Context(), &domainUser, requestPayload.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register user via service")

		clientMessage := "Failed to register user"
		if errors.Is(err, user.ErrEmailExists) {
			clientMessage = "The email has already been taken"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, toUserResponse(createdUser))
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest

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

	token, loggedInUser, err := h.service.Login(r.Context(), requestPayload.Email, requestPayload.Password)
	if err != nil {
		clientMessage := "Failed to log in"
		if errors.Is(err, user.ErrInvalidCredentials) {
			clientMessage = "Invalid credentials"
		} else {
			log.Error().Err(err).Msg("Failed to log in via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		User:        toUserResponse(loggedInUser),
	})
}

func (h *UserHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var requestPayload ForgotPasswordRequest

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

	err := h.service.RequestPasswordReset(r.Context(), requestPayload.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to request password reset via service")

		clientMessage := "Failed to request password reset"
		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "Not a registered email"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset link is sent to your email",
	})
}

func (h *UserHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization")
		return
	}

	var requestPayload ResetPasswordRequest

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

	err := h.service.ResetPassword(r.Context(), claims.UserID, requestPayload.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reset password via service")

		clientMessage := "Failed to reset password"
		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "User not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successful",
	})
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
