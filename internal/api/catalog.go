package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := store.ListProducts(r.Context(), s.db, r.URL.Query().Get("category"))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := store.GetProduct(r.Context(), s.db, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, product)
}

func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := store.ListDeals(r.Context(), s.db, time.Now())
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, deals)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := store.GetSettings(r.Context(), s.db)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, settings)
}
