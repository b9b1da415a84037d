package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/abdulahadd002/cheezy-heaven/internal/cart"
)

// LoadCart restores the persisted cart for a client-held cart id. A cart
// that does not exist yet, or whose persisted state is malformed, comes
// back as an empty cart rather than an error: the storefront always has a
// usable cart.
func LoadCart(ctx context.Context, db *sql.DB, cartID string) (*cart.Cart, error) {
	var data []byte

	err := db.QueryRowContext(ctx,
		`SELECT data FROM carts WHERE id = $1`, cartID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return cart.New(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	c := cart.New()
	if err := json.Unmarshal(data, c); err != nil {
		return cart.New(), nil
	}
	return c, nil
}

// SaveCart persists the full line set, counter, and applied promo. Called
// after every cart mutation so a returning client restores the same cart.
func SaveCart(ctx context.Context, db *sql.DB, cartID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO carts (id, data, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		cartID, data)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func DeleteCart(ctx context.Context, db *sql.DB, cartID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
