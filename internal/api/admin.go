package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

type productRequest struct {
	Name                string                     `json:"name" validate:"required"`
	Description         string                     `json:"description"`
	Category            string                     `json:"category" validate:"required"`
	Image               string                     `json:"image"`
	Price               decimal.Decimal            `json:"price"`
	Sizes               map[string]decimal.Decimal `json:"sizes"`
	Discount            int                        `json:"discount" validate:"min=0,max=100"`
	Customizations      []string                   `json:"customizations"`
	CustomizationPrices map[string]decimal.Decimal `json:"customization_prices"`
	Available           bool                       `json:"available"`
	IsNew               bool                       `json:"is_new"`
	Bestseller          bool                       `json:"bestseller"`
}

func (req *productRequest) toModel(id string) *models.Product {
	return &models.Product{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		Category:            req.Category,
		Image:               req.Image,
		Price:               req.Price,
		Sizes:               req.Sizes,
		Discount:            req.Discount,
		Customizations:      req.Customizations,
		CustomizationPrices: req.CustomizationPrices,
		Available:           req.Available,
		IsNew:               req.IsNew,
		Bestseller:          req.Bestseller,
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	product, err := store.CreateProduct(r.Context(), s.db, req.toModel(""))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	product, err := store.UpdateProduct(r.Context(), s.db, req.toModel(chi.URLParam(r, "id")))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteProduct(r.Context(), s.db, chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dealRequest struct {
	Category      string          `json:"category" validate:"required"`
	CategoryTitle string          `json:"category_title" validate:"required"`
	CategoryTime  string          `json:"category_time"`
	Title         string          `json:"title" validate:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
}

func (req *dealRequest) toModel(id string) *models.Deal {
	return &models.Deal{
		ID:            id,
		Category:      req.Category,
		CategoryTitle: req.CategoryTitle,
		CategoryTime:  req.CategoryTime,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
	}
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req dealRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	deal, err := store.CreateDeal(r.Context(), s.db, req.toModel(""))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusCreated, deal)
}

func (s *Server) handleUpdateDeal(w http.ResponseWriter, r *http.Request) {
	var req dealRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	deal, err := store.UpdateDeal(r.Context(), s.db, req.toModel(chi.URLParam(r, "id")))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, deal)
}

func (s *Server) handleDeleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteDeal(r.Context(), s.db, chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListOrders(r.Context(), s.db, "")
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondJSON(w, s.logger, http.StatusOK, orders)
}

type advanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) handleAdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req advanceStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	order, err := store.AdvanceOrderStatus(r.Context(), s.db, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, order)
}

// handleWatchAllOrders streams the whole order collection to the admin
// dashboard: the full newest-first set immediately, then again on every
// change anywhere in the set.
func (s *Server) handleWatchAllOrders(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	done := make(chan struct{})
	var closeOnce sync.Once
	finish := func() { closeOnce.Do(func() { close(done) }) }

	unsubscribe := s.hub.WatchAll(func(orders []models.Order) {
		if orders == nil {
			orders = []models.Order{}
		}
		if err := conn.WriteJSON(orders); err != nil {
			finish()
		}
	})
	defer unsubscribe()

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

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := decodeBody(r, &settings); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if settings.TaxRate < 0 || settings.TaxRate > 100 {
		respondError(w, s.logger, http.StatusBadRequest, "tax rate must be between 0 and 100")
		return
	}

	updated, err := store.UpdateSettings(r.Context(), s.db, settings)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, updated)
}

type promoRequest struct {
	Code       string     `json:"code" validate:"required"`
	Percent    int        `json:"percent" validate:"required,min=1,max=100"`
	Active     bool       `json:"active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

func (s *Server) handleCreatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	err := store.CreatePromo(r.Context(), s.db, models.PromoCode{
		Code:       req.Code,
		Percent:    req.Percent,
		Active:     req.Active,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	})
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
