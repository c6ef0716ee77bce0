package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/catalog"
	"github.com/vstoleru/storefront/internal/order"
	"github.com/vstoleru/storefront/internal/report"
	"github.com/vstoleru/storefront/internal/user"
)

type ProductRequest struct {
	Name              string  `json:"name" validate:"required"`
	Description       string  `json:"description" validate:"required"`
	Price             float64 `json:"price" validate:"gte=0"`
	QuantityAvailable int     `json:"quantity_available" validate:"gte=0"`
	Image             string  `json:"image" validate:"required,url"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

// AdminHandler обслуживает дашборд: отчёты, пользователей,
// управление товарами и статусами заказов.
type AdminHandler struct {
	reports  report.Service
	users    user.Service
	products catalog.Service
	orders   order.Service
	validate *validator.Validate
}

func NewAdminHandler(reports report.Service, users user.Service, products catalog.Service, orders order.Service) *AdminHandler {
	return &AdminHandler{
		reports:  reports,
		users:    users,
		products: products,
		orders:   orders,
		validate: validator.New(),
	}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Get("/admin/dashboard", h.handleDashboard)
	router.Get("/admin/users", h.handleListUsers)
	router.Get("/admin/orders", h.handleListOrders)
	router.Post("/admin/products", h.handleCreateProduct)
	router.Put("/admin/products/{id}", h.handleUpdateProduct)
	router.Put("/admin/orders/{id}/status", h.handleUpdateOrderStatus)
}

func (h *AdminHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reports.Dashboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build dashboard via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload ProductRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	product := catalog.Product{
		Name:              requestPayload.Name,
		Description:       requestPayload.Description,
		Price:             requestPayload.Price,
		QuantityAvailable: requestPayload.QuantityAvailable,
		Image:             requestPayload.Image,
	}

	created, err := h.products.CreateProduct(r.Context(), &product)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var requestPayload ProductRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	product := catalog.Product{
		ID:                productID,
		Name:              requestPayload.Name,
		Description:       requestPayload.Description,
		Price:             requestPayload.Price,
		QuantityAvailable: requestPayload.QuantityAvailable,
		Image:             requestPayload.Image,
	}

	if err := h.products.UpdateProduct(r.Context(), &product); err != nil {
		log.Error().Err(err).Msg("Failed to update product via service")

		var clientMessage string
		if errors.Is(err, catalog.ErrNotFound) {
			clientMessage = "Product not found"
		} else {
			clientMessage = "Failed to update product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	err := h.orders.UpdateOrderStatus(r.Context(), orderID, order.Status(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Msg("Failed to update order status via service")

		var clientMessage string
		switch {
		case errors.Is(err, order.ErrNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrInvalidStatusTransition):
			clientMessage = "Invalid status transition"
		default:
			clientMessage = "Failed to update order status"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
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
