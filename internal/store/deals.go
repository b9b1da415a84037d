package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/hours"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

const dealColumns = `id, category, category_title, category_time, title, description,
	price, created_at, updated_at, version`

func scanDeal(row rowScanner) (*models.Deal, error) {
	d := &models.Deal{}
	err := row.Scan(
		&d.ID,
		&d.Category,
		&d.CategoryTitle,
		&d.CategoryTime,
		&d.Title,
		&d.Description,
		&d.Price,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.Version,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func CreateDeal(ctx context.Context, db *sql.DB, d *models.Deal) (*models.Deal, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	query := `
		INSERT INTO deals (id, category, category_title, category_time, title, description,
			price, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)
		RETURNING ` + dealColumns

	created, err := scanDeal(db.QueryRowContext(ctx, query,
		d.ID, d.Category, d.CategoryTitle, d.CategoryTime, d.Title, d.Description, d.Price))
	if err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	created.ActiveNow = hours.ActiveAt(created.CategoryTime, time.Now())
	return created, nil
}

func GetDeal(ctx context.Context, db *sql.DB, id string) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`

	deal, err := scanDeal(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrDealNotFound
		}
		return nil, fmt.Errorf("get deal: %w", err)
	}
	deal.ActiveNow = hours.ActiveAt(deal.CategoryTime, time.Now())
	return deal, nil
}

// ListDeals returns all deals grouped in category order, each stamped with
// the derived active-now flag for the current clock.
func ListDeals(ctx context.Context, db *sql.DB, now time.Time) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals ORDER BY category, created_at`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deal.ActiveNow = hours.ActiveAt(deal.CategoryTime, now)
		deals = append(deals, *deal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return deals, nil
}

func UpdateDeal(ctx context.Context, db *sql.DB, d *models.Deal) (*models.Deal, error) {
	query := `
		UPDATE deals
		SET category = $2, category_title = $3, category_time = $4, title = $5,
		    description = $6, price = $7, updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + dealColumns

	updated, err := scanDeal(db.QueryRowContext(ctx, query,
		d.ID, d.Category, d.CategoryTitle, d.CategoryTime, d.Title, d.Description, d.Price))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrDealNotFound
		}
		return nil, fmt.Errorf("update deal: %w", err)
	}
	updated.ActiveNow = hours.ActiveAt(updated.CategoryTime, time.Now())
	return updated, nil
}

func DeleteDeal(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrDealNotFound
	}
	return nil
}
