package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Addresses []Address `json:"addresses"`
	Favorites []string  `json:"favorites"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type Address struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Address string `json:"address"`
	Default bool   `json:"is_default"`
}

type Product struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Description         string                     `json:"description,omitempty"`
	Category            string                     `json:"category"`
	Image               string                     `json:"image,omitempty"`
	Price               decimal.Decimal            `json:"price"`
	Sizes               map[string]decimal.Decimal `json:"sizes,omitempty"`
	Discount            int                        `json:"discount,omitempty"`
	Customizations      []string                   `json:"customizations,omitempty"`
	CustomizationPrices map[string]decimal.Decimal `json:"customization_prices,omitempty"`
	Available           bool                       `json:"available"`
	Rating              decimal.Decimal            `json:"rating"`
	ReviewCount         int                        `json:"review_count"`
	IsNew               bool                       `json:"is_new,omitempty"`
	Bestseller          bool                       `json:"bestseller,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
	Version             int                        `json:"version"`
}

type Deal struct {
	ID            string          `json:"id"`
	Category      string          `json:"category"`
	CategoryTitle string          `json:"category_title"`
	CategoryTime  string          `json:"category_time,omitempty"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	// ActiveNow is derived from CategoryTime against the current clock,
	// never persisted.
	ActiveNow bool      `json:"active_now"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	UserName    string          `json:"user_name,omitempty"`
	Items       []OrderItem     `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Address     string          `json:"address"`
	Phone       string          `json:"phone"`
	Payment     string          `json:"payment"`
	Status      string          `json:"status"`
	History     []StatusEntry   `json:"status_history"`
	PlacedAt    time.Time       `json:"placed_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of a cart line at order time. It holds the price
// charged, not a reference to the live product, so later catalog edits
// never alter a placed order.
type OrderItem struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Image          string          `json:"image,omitempty"`
	Size           string          `json:"size,omitempty"`
	Customizations []string        `json:"customizations,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

type StatusEntry struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type Settings struct {
	RestaurantName string          `json:"restaurant_name"`
	Phone1         string          `json:"phone1,omitempty"`
	Phone2         string          `json:"phone2,omitempty"`
	Address        string          `json:"address,omitempty"`
	TaxRate        int             `json:"tax_rate"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	EasypaisaNo    string          `json:"easypaisa_number,omitempty"`
	EasypaisaName  string          `json:"easypaisa_name,omitempty"`
	OpeningTime    string          `json:"opening_time,omitempty"`
	ClosingTime    string          `json:"closing_time,omitempty"`
}

type PromoCode struct {
	Code       string     `json:"code"`
	Percent    int        `json:"percent"`
	Active     bool       `json:"active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	GuestUserID = "guest"
)

const (
	StatusConfirmed      = "confirmed"
	StatusPreparing      = "preparing"
	StatusReady          = "ready"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
)

// StatusOrder is the fixed linear progression of an order.
var StatusOrder = []string{
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
}

// StatusIndex returns the position of a status in the progression,
// or -1 for an unknown status.
func StatusIndex(status string) int {
	for i, s := range StatusOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// NextStatus returns the only legal next status, or "" when the order
// is delivered or the current status is unknown.
func NextStatus(current string) string {
	idx := StatusIndex(current)
	if idx < 0 || idx >= len(StatusOrder)-1 {
		return ""
	}
	return StatusOrder[idx+1]
}

var PaymentMethods = []string{"cod", "jazzcash", "easypaisa", "card"}

func ValidPayment(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
