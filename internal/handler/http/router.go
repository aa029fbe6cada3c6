package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkuznetsov/bookstore-api/internal/auth"
	"github.com/mkuznetsov/bookstore-api/internal/user"
)

// NewRouter wires all handlers into a chi mux. Book writes are admin-only;
// cart, address and order operations require the user role.
func NewRouter(
	authManager *auth.Manager,
	revoker auth.Revoker,
	userHandler *UserHandler,
	bookHandler *BookHandler,
	cartHandler *CartHandler,
	addressHandler *AddressHandler,
	orderHandler *OrderHandler,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		userHandler.RegisterRoutes(r)
		bookHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(authManager, revoker))

			userHandler.RegisterProtectedRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(user.RoleAdmin))
				bookHandler.RegisterAdminRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(user.RoleUser))
				cartHandler.RegisterRoutes(r)
				addressHandler.RegisterRoutes(r)
				orderHandler.RegisterRoutes(r)
			})
		})
	})

	return r
}
