package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

func respondJSON(w http.ResponseWriter, logger zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("encode response")
	}
}

func respondError(w http.ResponseWriter, logger zerolog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// respondFieldErrors renders validator failures as one message per field,
// so the client can surface them inline.
func respondFieldErrors(w http.ResponseWriter, logger zerolog.Logger, err error) {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = "failed " + fe.Tag() + " validation"
		}
	}
	respondJSON(w, logger, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": fields,
	})
}

// respondStoreError maps store-layer failures onto HTTP statuses. Unknown
// errors log and come back as a retryable 500; nothing partial is left
// behind by the store in that case.
func respondStoreError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrDealNotFound),
		errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrCartNotFound):
		respondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrPromoInvalid),
		errors.Is(err, store.ErrEmptyCart),
		errors.Is(err, store.ErrAddressMissing),
		errors.Is(err, store.ErrPhoneInvalid),
		errors.Is(err, store.ErrPaymentInvalid):
		respondError(w, logger, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		respondError(w, logger, http.StatusInternalServerError, "something went wrong, please retry")
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
