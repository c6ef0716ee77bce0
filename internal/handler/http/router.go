package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Admin   *AdminHandler
}

func NewRouter(h Handlers, sessions SessionStore) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h.Auth.RegisterRoutes(router)
	h.Catalog.RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(RequireSession(sessions))
		h.Cart.RegisterRoutes(r)
		h.Order.RegisterRoutes(r)

		r.Group(func(admin chi.Router) {
			admin.Use(RequireAdmin)
			h.Admin.RegisterRoutes(admin)
		})
	})

	return router
}
