package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

// LookupPromo resolves a promo code, case-insensitively, and checks its
// active flag and validity window against now. Anything that fails
// resolves to ErrPromoInvalid so callers cannot distinguish unknown codes
// from expired ones.
func LookupPromo(ctx context.Context, db *sql.DB, code string, now time.Time) (*models.PromoCode, error) {
	promo := &models.PromoCode{}

	query := `
		SELECT code, percent, active, valid_from, valid_until
		FROM promo_codes
		WHERE code = $1`

	err := db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&promo.Code,
		&promo.Percent,
		&promo.Active,
		&promo.ValidFrom,
		&promo.ValidUntil,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPromoInvalid
		}
		return nil, fmt.Errorf("lookup promo: %w", err)
	}

	if !promo.Active {
		return nil, database.ErrPromoInvalid
	}
	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return nil, database.ErrPromoInvalid
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return nil, database.ErrPromoInvalid
	}

	return promo, nil
}

func CreatePromo(ctx context.Context, db *sql.DB, promo models.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, percent, active, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE
		SET percent = EXCLUDED.percent,
		    active = EXCLUDED.active,
		    valid_from = EXCLUDED.valid_from,
		    valid_until = EXCLUDED.valid_until`

	_, err := db.ExecContext(ctx, query,
		strings.ToUpper(strings.TrimSpace(promo.Code)), promo.Percent, promo.Active,
		promo.ValidFrom, promo.ValidUntil)
	if err != nil {
		return fmt.Errorf("create promo: %w", err)
	}
	return nil
}
