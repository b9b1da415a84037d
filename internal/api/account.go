package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdulahadd002/cheezy-heaven/internal/auth"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
}

type authResponse struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	user, err := store.CreateUser(r.Context(), s.db, req.Email, req.Name, req.Phone, hash)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	user, hash, err := store.GetCredentials(r.Context(), s.db, req.Email)
	if err != nil || !auth.CheckPassword(hash, req.Password) {
		respondError(w, s.logger, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	user, err := store.GetUser(r.Context(), s.db, claims.UserID)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	user, err := store.UpdateProfile(r.Context(), s.db, claims.UserID, req.Name, req.Phone)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, user)
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	limit := 20
	page, err := store.ListOrdersCursor(r.Context(), s.db, claims.UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, page)
}

type addressRequest struct {
	Label   string `json:"label" validate:"required"`
	Address string `json:"address" validate:"required"`
	Default bool   `json:"is_default"`
}

func (s *Server) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req addressRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFieldErrors(w, s.logger, err)
		return
	}

	user, err := store.AddAddress(r.Context(), s.db, claims.UserID, models.Address{
		Label:   req.Label,
		Address: req.Address,
		Default: req.Default,
	})
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusCreated, user)
}

func (s *Server) handleRemoveAddress(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	user, err := store.RemoveAddress(r.Context(), s.db, claims.UserID, chi.URLParam(r, "addressID"))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, user)
}

func (s *Server) handleSetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	user, err := store.SetDefaultAddress(r.Context(), s.db, claims.UserID, chi.URLParam(r, "addressID"))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, user)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	favorites, err := store.ToggleFavorite(r.Context(), s.db, claims.UserID, chi.URLParam(r, "productID"))
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, map[string][]string{"favorites": favorites})
}

type mergeFavoritesRequest struct {
	Favorites []string `json:"favorites"`
}

// handleMergeFavorites folds guest-local favorites into the account's set
// after login. The merged set becomes canonical; the client discards its
// local copy.
func (s *Server) handleMergeFavorites(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req mergeFavoritesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	favorites, err := store.MergeFavorites(r.Context(), s.db, claims.UserID, req.Favorites)
	if err != nil {
		respondStoreError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, map[string][]string{"favorites": favorites})
}
