package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/abdulahadd002/cheezy-heaven/internal/auth"
	"github.com/abdulahadd002/cheezy-heaven/internal/cart"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

type checkoutRequest struct {
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Payment string `json:"payment" validate:"required"`
	Name    string `json:"name"`
}

// handleCheckout converts the cart into an order. The cart is cleared
// only after the order write commits; a failed write leaves the cart
// intact so the customer can retry.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)

	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}
	if !store.ValidPhone(req.Phone) {
		respondJSON(w, s.logger, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": map[string]string{"Phone": "must be an 11-digit local number or +92 international form"},
		})
		return
	}

	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	settings, err := store.GetSettings(r.Context(), s.db)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	userID := models.GuestUserID
	userName := req.Name
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		userID = claims.UserID
		if userName == "" {
			if user, err := store.GetUser(r.Context(), s.db, claims.UserID); err == nil {
				userName = user.Name
			}
		}
	}

	order, err := store.CreateOrder(r.Context(), s.db, store.CreateOrderRequest{
		UserID:   userID,
		UserName: userName,
		Cart:     c,
		Pricing:  cart.Pricing{TaxRate: settings.TaxRate, DeliveryFee: settings.DeliveryFee},
		Address:  req.Address,
		Phone:    req.Phone,
		Payment:  req.Payment,
	})
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	if err := store.DeleteCart(r.Context(), s.db, cartID); err != nil {
		// The order is placed; a stale cart is an inconvenience, not a
		// failure.
		s.logger.Warn().Err(err).Str("cart_id", cartID).Msg("clear cart after checkout")
	}

	respondJSON(w, s.logger, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrder(r.Context(), s.db, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, order)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The storefront and the API share an origin in production; the
	// reverse proxy enforces it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWatchOrder streams the order state over a WebSocket: one message
// immediately with the current state (null when missing), then one per
// change. Closing the socket unsubscribes.
func (s *Server) handleWatchOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	s.streamOrder(conn, orderID)
}

func (s *Server) streamOrder(conn *websocket.Conn, orderID string) {
	done := make(chan struct{})
	var closeOnce sync.Once
	finish := func() { closeOnce.Do(func() { close(done) }) }

	unsubscribe := s.hub.WatchOrder(orderID, func(order *models.Order) {
		// Callbacks are serialized by the hub, so writes never interleave.
		if err := conn.WriteJSON(order); err != nil {
			finish()
		}
	})
	defer unsubscribe()

	// Detect client close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				finish()
				return
			}
		}
	}()

	<-done
	conn.Close()
}
