// Package api wires the storefront and admin back-office over HTTP, plus
// WebSocket push for live order tracking.
package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/abdulahadd002/cheezy-heaven/internal/auth"
	"github.com/abdulahadd002/cheezy-heaven/internal/watch"
)

type Server struct {
	db       *sql.DB
	hub      *watch.Hub
	tokens   *auth.Tokens
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewServer(db *sql.DB, hub *watch.Hub, tokens *auth.Tokens, logger zerolog.Logger) *Server {
	return &Server{
		db:       db,
		hub:      hub,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		// Public storefront.
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/deals", s.handleListDeals)
		r.Get("/settings", s.handleGetSettings)

		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		// Cart and checkout work for guests too; a token only attaches
		// the order to an account.
		r.Group(func(r chi.Router) {
			r.Use(s.tokens.Optional)
			r.Get("/cart", s.handleGetCart)
			r.Post("/cart/items", s.handleAddCartItem)
			r.Patch("/cart/items/{lineID}", s.handleUpdateCartItem)
			r.Delete("/cart/items/{lineID}", s.handleRemoveCartItem)
			r.Delete("/cart", s.handleClearCart)
			r.Post("/cart/promo", s.handleApplyPromo)
			r.Post("/checkout", s.handleCheckout)
			r.Get("/orders/{id}", s.handleGetOrder)
			r.Get("/orders/{id}/watch", s.handleWatchOrder)
		})

		// Account surface.
		r.Group(func(r chi.Router) {
			r.Use(s.tokens.RequireUser)
			r.Get("/me", s.handleGetProfile)
			r.Put("/me", s.handleUpdateProfile)
			r.Get("/me/orders", s.handleMyOrders)
			r.Post("/me/addresses", s.handleAddAddress)
			r.Delete("/me/addresses/{addressID}", s.handleRemoveAddress)
			r.Put("/me/addresses/{addressID}/default", s.handleSetDefaultAddress)
			r.Put("/me/favorites/{productID}", s.handleToggleFavorite)
			r.Post("/me/favorites/merge", s.handleMergeFavorites)
		})

		// Admin back-office.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.tokens.RequireAdmin)
			r.Post("/products", s.handleCreateProduct)
			r.Put("/products/{id}", s.handleUpdateProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)
			r.Post("/deals", s.handleCreateDeal)
			r.Put("/deals/{id}", s.handleUpdateDeal)
			r.Delete("/deals/{id}", s.handleDeleteDeal)
			r.Get("/orders", s.handleAdminListOrders)
			r.Get("/orders/watch", s.handleWatchAllOrders)
			r.Post("/orders/{id}/status", s.handleAdvanceStatus)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)
			r.Post("/promos", s.handleCreatePromo)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
