package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/order"
)

type OrderHandler struct {
	service order.Service
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/checkout", h.handleCheckout)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrderByID)
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ord, err := h.service.Checkout(r.Context(), s.UserID)
	if err != nil {
		var stockErr *order.StockConflictError
		switch {
		case errors.As(err, &stockErr):
			respondWithJSON(w, http.StatusConflict, map[string]any{
				"error":       "Some products are no longer available in the requested quantity; the affected cart lines were removed, please review your cart",
				"product_ids": stockErr.ProductIDs,
			})
		case errors.Is(err, order.ErrEmptyCart):
			respondWithError(w, http.StatusUnprocessableEntity, "Cart is empty")
		default:
			log.Error().Err(err).Msg("Failed to checkout via service")
			respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, ord)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.service.GetOrdersByUserID(r.Context(), s.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	ord, err := h.service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}

	// Чужой заказ не отдаём даже по угаданному id.
	if ord.UserID != s.UserID {
		respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}
