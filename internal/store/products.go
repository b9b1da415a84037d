package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

const productColumns = `id, name, description, category, image, price, sizes, discount,
	customizations, customization_prices, available, rating, review_count,
	is_new, bestseller, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var sizes, customizations, custPrices []byte

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Image,
		&p.Price,
		&sizes,
		&p.Discount,
		&customizations,
		&custPrices,
		&p.Available,
		&p.Rating,
		&p.ReviewCount,
		&p.IsNew,
		&p.Bestseller,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(sizes, &p.Sizes); err != nil {
		return nil, fmt.Errorf("decode sizes: %w", err)
	}
	if err := unmarshalJSONB(customizations, &p.Customizations); err != nil {
		return nil, fmt.Errorf("decode customizations: %w", err)
	}
	if err := unmarshalJSONB(custPrices, &p.CustomizationPrices); err != nil {
		return nil, fmt.Errorf("decode customization prices: %w", err)
	}

	return p, nil
}

func unmarshalJSONB(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func marshalJSONB(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func CreateProduct(ctx context.Context, db *sql.DB, p *models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	sizes, err := marshalJSONB(p.Sizes)
	if err != nil {
		return nil, fmt.Errorf("encode sizes: %w", err)
	}
	customizations, err := marshalJSONB(p.Customizations)
	if err != nil {
		return nil, fmt.Errorf("encode customizations: %w", err)
	}
	custPrices, err := marshalJSONB(p.CustomizationPrices)
	if err != nil {
		return nil, fmt.Errorf("encode customization prices: %w", err)
	}

	query := `
		INSERT INTO products (id, name, description, category, image, price, sizes, discount,
			customizations, customization_prices, available, rating, review_count,
			is_new, bestseller, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	row := db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.Image, p.Price, sizes, p.Discount,
		customizations, custPrices, p.Available, p.Rating, p.ReviewCount,
		p.IsNew, p.Bestseller)

	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns the catalog, optionally narrowed to one category.
func ListProducts(ctx context.Context, db *sql.DB, category string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	args := []interface{}{}
	if category != "" {
		query = `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY created_at DESC`
		args = append(args, category)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, p *models.Product) (*models.Product, error) {
	sizes, err := marshalJSONB(p.Sizes)
	if err != nil {
		return nil, fmt.Errorf("encode sizes: %w", err)
	}
	customizations, err := marshalJSONB(p.Customizations)
	if err != nil {
		return nil, fmt.Errorf("encode customizations: %w", err)
	}
	custPrices, err := marshalJSONB(p.CustomizationPrices)
	if err != nil {
		return nil, fmt.Errorf("encode customization prices: %w", err)
	}

	// Rating aggregates are review-driven; edits never touch them.
	query := `
		UPDATE products
		SET name = $2, description = $3, category = $4, image = $5, price = $6,
		    sizes = $7, discount = $8, customizations = $9, customization_prices = $10,
		    available = $11, is_new = $12, bestseller = $13,
		    updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + productColumns

	row := db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.Image, p.Price, sizes, p.Discount,
		customizations, custPrices, p.Available, p.IsNew, p.Bestseller)

	updated, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}
	return nil
}
