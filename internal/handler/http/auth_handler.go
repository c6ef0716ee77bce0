package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/auth"
	"github.com/vstoleru/storefront/internal/session"
	"github.com/vstoleru/storefront/internal/user"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type UserResponse struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type SessionCreator interface {
	Create(u *user.User) (session.Session, error)
}

type AuthHandler struct {
	service  auth.Service
	sessions SessionCreator
	store    SessionStore
	validate *validator.Validate
}

func NewAuthHandler(service auth.Service, sessions SessionCreator, store SessionStore) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		store:    store,
		validate: validator.New(),
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/register", h.handleRegister)
	router.Post("/auth/login", h.handleLogin)
	router.Post("/auth/verify", h.handleVerify)
	router.Post("/auth/logout", h.handleLogout)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	created, err := h.service.Register(r.Context(), requestPayload.Name, requestPayload.Email, requestPayload.Password)
	if err != nil && !errors.Is(err, auth.ErrDispatchFailed) && !errors.Is(err, auth.ErrCodeIssueFailed) {
		log.Error().Err(err).Msg("Failed to register user via service")

		var clientMessage string
		if errors.Is(err, user.ErrEmailExists) {
			clientMessage = "Email already exists"
		} else {
			clientMessage = "Failed to register"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	responsePayload := map[string]any{
		"user": UserResponse{
			ID:    created.ID,
			Name:  created.Name,
			Email: created.Email,
			Role:  created.Role,
		},
		"message": "Verification code sent",
	}
	switch {
	case errors.Is(err, auth.ErrDispatchFailed):
		// Код выпущен, но доставка не удалась: сообщаем, не отменяя регистрацию.
		responsePayload["message"] = "Registered, but the verification code could not be delivered"
	case errors.Is(err, auth.ErrCodeIssueFailed):
		// Пользователь создан, кода нет: повтор регистрации упёрся бы в
		// занятый email, поэтому отвечаем успехом и шлём за новым кодом.
		responsePayload["message"] = "Registered, but the verification code could not be issued; request a new code via login"
	}

	respondWithJSON(w, http.StatusCreated, responsePayload)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	err := h.service.IssueCode(r.Context(), requestPayload.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			log.Warn().Msg("Login attempt for unknown email")
			respondWithError(w, http.StatusUnauthorized, "Invalid email or code")
			return
		}
		if errors.Is(err, auth.ErrDispatchFailed) {
			respondWithJSON(w, http.StatusAccepted, map[string]string{
				"message": "Code issued, but delivery failed; check your delivery channel",
			})
			return
		}
		log.Error().Err(err).Msg("Failed to issue code via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to issue verification code")
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Verification code sent"})
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var requestPayload VerifyRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	verified, err := h.service.VerifyCode(r.Context(), requestPayload.Email, requestPayload.Code)
	if err != nil {
		// Невалидный код и неизвестный адрес отвечают одинаково.
		if errors.Is(err, auth.ErrCodeInvalid) || errors.Is(err, auth.ErrUserNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or code")
			return
		}
		log.Error().Err(err).Msg("Failed to verify code via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to verify code")
		return
	}

	s, err := h.sessions.Create(verified)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondWithJSON(w, http.StatusOK, SessionResponse{
		Token: s.Token,
		User: UserResponse{
			ID:    verified.ID,
			Name:  verified.Name,
			Email: verified.Email,
			Role:  verified.Role,
		},
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		h.store.Destroy(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := h.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}
