package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/abdulahadd002/cheezy-heaven/internal/cart"
	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

// phonePattern accepts the local 11-digit leading-zero form (03001234567)
// or the +92 international form. Separators are stripped before matching.
var phonePattern = regexp.MustCompile(`^(0\d{10}|\+92\d{10})$`)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrAddressMissing = errors.New("delivery address is required")
	ErrPhoneInvalid   = errors.New("phone number is invalid")
	ErrPaymentInvalid = errors.New("unknown payment method")
)

func ValidPhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	return phonePattern.MatchString(cleaned)
}

type CreateOrderRequest struct {
	UserID   string
	UserName string
	Cart     *cart.Cart
	Pricing  cart.Pricing
	Address  string
	Phone    string
	Payment  string
}

func (req *CreateOrderRequest) validate() error {
	if req.Cart == nil || len(req.Cart.Lines) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(req.Address) == "" {
		return ErrAddressMissing
	}
	if !ValidPhone(req.Phone) {
		return ErrPhoneInvalid
	}
	if !models.ValidPayment(req.Payment) {
		return ErrPaymentInvalid
	}
	return nil
}

// CreateOrder turns a cart into an immutable order: line snapshots, totals
// computed once at creation time, status seeded to confirmed with a
// one-entry history. The insert, the history seed, and the change
// notification commit atomically, so either the whole order is visible to
// readers or nothing is.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = models.GuestUserID
	}

	items := make([]models.OrderItem, 0, len(req.Cart.Lines))
	for _, l := range req.Cart.Lines {
		items = append(items, models.OrderItem{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Image:          l.Image,
			Size:           l.Size,
			Customizations: l.Customizations,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
		})
	}

	totals := req.Cart.Totals(req.Pricing)
	now := time.Now().UTC()

	order := &models.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		UserName:    req.UserName,
		Items:       items,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		DeliveryFee: totals.DeliveryFee,
		Discount:    totals.Discount,
		Total:       totals.Total,
		Address:     strings.TrimSpace(req.Address),
		Phone:       req.Phone,
		Payment:     req.Payment,
		Status:      models.StatusConfirmed,
		History:     []models.StatusEntry{{Status: models.StatusConfirmed, Time: now}},
		PlacedAt:    now,
		UpdatedAt:   now,
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, user_id, user_name, items, subtotal, tax, delivery_fee,
				discount, total, address, phone, payment, status, placed_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
			order.ID, order.UserID, order.UserName, itemsJSON, order.Subtotal, order.Tax,
			order.DeliveryFee, order.Discount, order.Total, order.Address, order.Phone,
			order.Payment, order.Status, now)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_status_history (order_id, status, changed_at)
			 VALUES ($1, $2, $3)`,
			order.ID, models.StatusConfirmed, now)
		if err != nil {
			return fmt.Errorf("seed status history: %w", err)
		}

		return notifyOrderChanged(ctx, tx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// notifyOrderChanged publishes the order id on the order events channel.
// Running inside the transaction means the notification fires only on
// commit, after the new state is visible.
func notifyOrderChanged(ctx context.Context, tx *sql.Tx, orderID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, database.OrderEventsChannel, orderID); err != nil {
		return fmt.Errorf("notify order change: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, user_name, items, subtotal, tax, delivery_fee,
	discount, total, address, phone, payment, status, placed_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	var items []byte

	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.UserName,
		&items,
		&o.Subtotal,
		&o.Tax,
		&o.DeliveryFee,
		&o.Discount,
		&o.Total,
		&o.Address,
		&o.Phone,
		&o.Payment,
		&o.Status,
		&o.PlacedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return o, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	history, err := getStatusHistory(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.History = history

	return order, nil
}

func getStatusHistory(ctx context.Context, db *sql.DB, orderID string) ([]models.StatusEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT status, changed_at FROM order_status_history
		 WHERE order_id = $1 ORDER BY seq`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusEntry
	for rows.Next() {
		var entry models.StatusEntry
		if err := rows.Scan(&entry.Status, &entry.Time); err != nil {
			return nil, fmt.Errorf("scan status entry: %w", err)
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return history, nil
}

// ListOrders returns orders newest-placed-first. An empty userID returns
// the whole collection (the admin view); otherwise only that customer's
// orders.
func ListOrders(ctx context.Context, db *sql.DB, userID string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY placed_at DESC, id DESC`
	args := []interface{}{}
	if userID != "" {
		query = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY placed_at DESC, id DESC`
		args = append(args, userID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

// ListOrdersCursor pages through a customer's orders newest-first using a
// keyset cursor, for the account order-history view.
func ListOrdersCursor(ctx context.Context, db *sql.DB, userID string, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (placed_at, id) < ($2, $3)
		ORDER BY placed_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.PlacedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{PlacedAt: last.PlacedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// AdvanceOrderStatus moves an order exactly one step along the fixed
// progression. Transitions are enforced at the write layer: skipping
// ahead, rolling back, or re-applying the current status all fail with
// ErrInvalidTransition. The serializable transaction plus row lock makes
// concurrent advances deterministic: one commits, the other re-reads the
// new status and is rejected.
func AdvanceOrderStatus(ctx context.Context, db *sql.DB, orderID, newStatus string) (*models.Order, error) {
	if models.StatusIndex(newStatus) < 0 {
		return nil, database.ErrInvalidTransition
	}

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if models.StatusIndex(newStatus) != models.StatusIndex(current)+1 {
			return database.ErrInvalidTransition
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_status_history (order_id, status, changed_at)
			 VALUES ($1, $2, $3)`,
			orderID, newStatus, now)
		if err != nil {
			return fmt.Errorf("append status history: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
			orderID, newStatus, now)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		return notifyOrderChanged(ctx, tx, orderID)
	})
	if err != nil {
		return nil, err
	}

	return GetOrder(ctx, db, orderID)
}
