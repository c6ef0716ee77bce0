package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/cart"
)

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Lines         []cart.Line `json:"lines"`
	TotalQuantity int         `json:"total_quantity"`
	TotalPrice    float64     `json:"total_price"`
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
	router.Get("/cart", h.handleGetCart)
	router.Post("/cart/items", h.handleAddItem)
	router.Put("/cart/items/{productID}", h.handleUpdateQuantity)
	router.Delete("/cart/items/{productID}", h.handleRemoveItem)
	router.Delete("/cart", h.handleClearCart)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	lines, err := h.service.List(r.Context(), s.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cart via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list cart")
		return
	}

	respondWithJSON(w, http.StatusOK, buildCartResponse(lines))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var requestPayload AddItemRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
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
		return
	}

	err := h.service.AddItem(r.Context(), s.UserID, requestPayload.ProductID, requestPayload.Quantity)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add cart item via service")

		var clientMessage string
		if errors.Is(err, cart.ErrInvalidQuantity) {
			clientMessage = "Quantity must be greater than zero"
		} else {
			clientMessage = "Failed to add item to cart"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	h.respondWithCart(w, r, s.UserID, http.StatusCreated)
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	var requestPayload UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// Ноль и меньше — удаление строки, поэтому нижней границы в
	// валидации нет.
	err := h.service.UpdateQuantity(r.Context(), s.UserID, productID, requestPayload.Quantity)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update cart item via service")

		var clientMessage string
		if errors.Is(err, cart.ErrItemNotFound) {
			clientMessage = "Cart item not found"
		} else {
			clientMessage = "Failed to update cart item"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	h.respondWithCart(w, r, s.UserID, http.StatusOK)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.service.RemoveItem(r.Context(), s.UserID, productID); err != nil {
		log.Error().Err(err).Msg("Failed to remove cart item via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to remove cart item")
		return
	}

	h.respondWithCart(w, r, s.UserID, http.StatusOK)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.service.Clear(r.Context(), s.UserID); err != nil {
		log.Error().Err(err).Msg("Failed to clear cart via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	h.respondWithCart(w, r, s.UserID, http.StatusOK)
}

// respondWithCart возвращает свежее состояние корзины после мутации:
// клиент обновляет сводку количества без отдельного запроса.
func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, userID int64, code int) {
	lines, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cart via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list cart")
		return
	}

	respondWithJSON(w, code, buildCartResponse(lines))
}

func buildCartResponse(lines []cart.Line) CartResponse {
	resp := CartResponse{Lines: lines}
	for _, l := range lines {
		resp.TotalQuantity += l.Quantity
		resp.TotalPrice += float64(l.Quantity) * l.Price
	}
	return resp
}
