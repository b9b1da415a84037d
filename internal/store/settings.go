package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

// DefaultSettings mirrors the values the storefront falls back to when the
// configuration record is missing or unreadable.
func DefaultSettings() models.Settings {
	return models.Settings{
		RestaurantName: "Cheezy Heaven",
		TaxRate:        16,
		DeliveryFee:    decimal.Zero,
	}
}

// GetSettings reads the singleton restaurant configuration row, falling
// back to defaults when it does not exist.
func GetSettings(ctx context.Context, db *sql.DB) (models.Settings, error) {
	s := models.Settings{}

	query := `
		SELECT restaurant_name, phone1, phone2, address, tax_rate, delivery_fee,
		       easypaisa_number, easypaisa_name, opening_time, closing_time
		FROM settings
		WHERE id = 'restaurant'`

	err := db.QueryRowContext(ctx, query).Scan(
		&s.RestaurantName,
		&s.Phone1,
		&s.Phone2,
		&s.Address,
		&s.TaxRate,
		&s.DeliveryFee,
		&s.EasypaisaNo,
		&s.EasypaisaName,
		&s.OpeningTime,
		&s.ClosingTime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	return s, nil
}

func UpdateSettings(ctx context.Context, db *sql.DB, s models.Settings) (models.Settings, error) {
	query := `
		INSERT INTO settings (id, restaurant_name, phone1, phone2, address, tax_rate,
			delivery_fee, easypaisa_number, easypaisa_name, opening_time, closing_time)
		VALUES ('restaurant', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET restaurant_name = EXCLUDED.restaurant_name,
		    phone1 = EXCLUDED.phone1,
		    phone2 = EXCLUDED.phone2,
		    address = EXCLUDED.address,
		    tax_rate = EXCLUDED.tax_rate,
		    delivery_fee = EXCLUDED.delivery_fee,
		    easypaisa_number = EXCLUDED.easypaisa_number,
		    easypaisa_name = EXCLUDED.easypaisa_name,
		    opening_time = EXCLUDED.opening_time,
		    closing_time = EXCLUDED.closing_time`

	_, err := db.ExecContext(ctx, query,
		s.RestaurantName, s.Phone1, s.Phone2, s.Address, s.TaxRate, s.DeliveryFee,
		s.EasypaisaNo, s.EasypaisaName, s.OpeningTime, s.ClosingTime)
	if err != nil {
		return models.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	return s, nil
}
