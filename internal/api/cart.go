package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdulahadd002/cheezy-heaven/internal/cart"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

// cartIDHeader carries the client-held cart id. A client without one gets
// a fresh id back and pins it for later requests, which is how the cart
// survives reloads.
const cartIDHeader = "X-Cart-Id"

func (s *Server) cartID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(cartIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(cartIDHeader, id)
	return id
}

type cartResponse struct {
	CartID string      `json:"cart_id"`
	Lines  []cart.Line `json:"lines"`
	Promo  string      `json:"promo,omitempty"`
	cart.Totals
}

func (s *Server) respondCart(w http.ResponseWriter, r *http.Request, cartID string, c *cart.Cart) {
	settings, err := store.GetSettings(r.Context(), s.db)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	respondJSON(w, s.logger, http.StatusOK, cartResponse{
		CartID: cartID,
		Lines:  lines,
		Promo:  c.Promo,
		Totals: c.Totals(cart.Pricing{TaxRate: settings.TaxRate, DeliveryFee: settings.DeliveryFee}),
	})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)
	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	s.respondCart(w, r, cartID, c)
}

type addItemRequest struct {
	ProductID      string   `json:"product_id" validate:"required"`
	Size           string   `json:"size"`
	Customizations []string `json:"customizations"`
	Quantity       int      `json:"quantity"`
}

// handleAddCartItem resolves the unit price from the live catalog at add
// time: size price (or flat price), minus the product discount, plus flat
// customization prices. The resulting price is frozen on the line.
func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)

	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	product, err := store.GetProduct(r.Context(), s.db, req.ProductID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	if !product.Available {
		respondError(w, s.logger, http.StatusBadRequest, "product is unavailable")
		return
	}

	unitPrice, err := unitPriceFor(product, req.Size, req.Customizations)
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}

	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	c.Add(cart.AddRequest{
		ProductID:      product.ID,
		Name:           product.Name,
		Image:          product.Image,
		Size:           req.Size,
		Customizations: req.Customizations,
		UnitPrice:      unitPrice,
		Quantity:       req.Quantity,
	})

	if err := store.SaveCart(r.Context(), s.db, cartID, c); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	s.respondCart(w, r, cartID, c)
}

type unknownSizeError struct{ size string }

func (e unknownSizeError) Error() string { return "unknown size: " + e.size }

func unitPriceFor(product *models.Product, size string, customizations []string) (decimal.Decimal, error) {
	price := product.Price
	if size != "" {
		sizePrice, ok := product.Sizes[size]
		if !ok {
			return decimal.Zero, unknownSizeError{size: size}
		}
		price = sizePrice
	}

	if product.Discount > 0 {
		discount := price.Mul(decimal.NewFromInt(int64(product.Discount))).Div(decimal.NewFromInt(100)).Round(0)
		price = price.Sub(discount)
	}

	for _, c := range customizations {
		if extra, ok := product.CustomizationPrices[c]; ok {
			price = price.Add(extra)
		}
	}
	return price, nil
}

type updateQtyRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)

	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid line id")
		return
	}

	var req updateQtyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	c.UpdateQty(lineID, req.Quantity)

	if err := store.SaveCart(r.Context(), s.db, cartID, c); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	s.respondCart(w, r, cartID, c)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)

	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid line id")
		return
	}

	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	c.Remove(lineID)

	if err := store.SaveCart(r.Context(), s.db, cartID, c); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	s.respondCart(w, r, cartID, c)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)

	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	c.Clear()

	if err := store.SaveCart(r.Context(), s.db, cartID, c); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	s.respondCart(w, r, cartID, c)
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *Server) handleApplyPromo(w http.ResponseWriter, r *http.Request) {
	cartID := s.cartID(w, r)

	var req applyPromoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	promo, err := store.LookupPromo(r.Context(), s.db, req.Code, time.Now())
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	c, err := store.LoadCart(r.Context(), s.db, cartID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	c.ApplyPromo(promo.Code, promo.Percent)

	if err := store.SaveCart(r.Context(), s.db, cartID, c); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	s.respondCart(w, r, cartID, c)
}
