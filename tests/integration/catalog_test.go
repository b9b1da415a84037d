package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abdulahadd002/cheezy-heaven/internal/cart"
	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

func TestProductCRUD(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateProduct(ctx, db, &models.Product{
		Name:     "Chicken Tikka",
		Category: "pizza",
		Sizes: map[string]decimal.Decimal{
			"Small": decimal.NewFromInt(650),
			"Large": decimal.NewFromInt(1250),
		},
		Customizations:      []string{"Extra Cheese"},
		CustomizationPrices: map[string]decimal.Decimal{"Extra Cheese": decimal.NewFromInt(100)},
		Available:           true,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	if created.ID == "" {
		t.Error("Product ID should be assigned")
	}

	fetched, err := store.GetProduct(ctx, db, created.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if !fetched.Sizes["Large"].Equal(decimal.NewFromInt(1250)) {
		t.Errorf("Expected Large 1250, got %s", fetched.Sizes["Large"])
	}

	byCategory, err := store.ListProducts(ctx, db, "pizza")
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if len(byCategory) != 1 {
		t.Errorf("Expected 1 pizza, got %d", len(byCategory))
	}

	otherCategory, err := store.ListProducts(ctx, db, "burgers")
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if len(otherCategory) != 0 {
		t.Errorf("Expected no burgers, got %d", len(otherCategory))
	}

	if err := store.DeleteProduct(ctx, db, created.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}
	if _, err := store.GetProduct(ctx, db, created.ID); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestUpdateProductPreservesRating(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateProduct(ctx, db, &models.Product{
		Name:      "Malai Boti",
		Category:  "pizza",
		Price:     decimal.NewFromInt(1100),
		Available: true,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	// Reviews accumulate outside the admin edit path.
	if _, err := db.ExecContext(ctx,
		`UPDATE products SET rating = 4.5, review_count = 12 WHERE id = $1`,
		created.ID); err != nil {
		t.Fatalf("Seed rating: %v", err)
	}

	created.Available = false
	updated, err := store.UpdateProduct(ctx, db, created)
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Available {
		t.Error("Expected product to be unavailable after update")
	}
	if !updated.Rating.Equal(decimal.NewFromFloat(4.5)) {
		t.Errorf("Expected rating 4.5 to survive the update, got %s", updated.Rating)
	}
	if updated.ReviewCount != 12 {
		t.Errorf("Expected review count 12 to survive the update, got %d", updated.ReviewCount)
	}
}

func TestDealActiveWindow(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateDeal(ctx, db, &models.Deal{
		Category:      "midnight",
		CategoryTitle: "Midnight Deals",
		CategoryTime:  "11:00 PM to 3:00 AM",
		Title:         "Midnight Feast",
		Price:         decimal.NewFromInt(999),
	}); err != nil {
		t.Fatalf("Create deal: %v", err)
	}
	if _, err := store.CreateDeal(ctx, db, &models.Deal{
		Category:      "allday",
		CategoryTitle: "All Day Deals",
		CategoryTime:  "All Day",
		Title:         "Family Deal",
		Price:         decimal.NewFromInt(1999),
	}); err != nil {
		t.Fatalf("Create deal: %v", err)
	}

	oneAM := time.Date(2025, 6, 1, 1, 0, 0, 0, time.Local)
	deals, err := store.ListDeals(ctx, db, oneAM)
	if err != nil {
		t.Fatalf("List deals: %v", err)
	}
	for _, d := range deals {
		if !d.ActiveNow {
			t.Errorf("Deal %s should be active at 1 AM", d.Title)
		}
	}

	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	deals, err = store.ListDeals(ctx, db, noon)
	if err != nil {
		t.Fatalf("List deals: %v", err)
	}
	for _, d := range deals {
		switch d.Category {
		case "midnight":
			if d.ActiveNow {
				t.Errorf("Midnight deal should be inactive at noon")
			}
		case "allday":
			if !d.ActiveNow {
				t.Errorf("All Day deal should always be active")
			}
		}
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	settings, err := store.GetSettings(ctx, db)
	if err != nil {
		t.Fatalf("Get settings: %v", err)
	}
	if settings.RestaurantName != "Cheezy Heaven" {
		t.Errorf("Expected default restaurant name, got %s", settings.RestaurantName)
	}
	if settings.TaxRate != 16 {
		t.Errorf("Expected default tax rate 16, got %d", settings.TaxRate)
	}

	settings.TaxRate = 10
	settings.DeliveryFee = decimal.NewFromInt(200)
	updated, err := store.UpdateSettings(ctx, db, settings)
	if err != nil {
		t.Fatalf("Update settings: %v", err)
	}
	if updated.TaxRate != 10 {
		t.Errorf("Expected tax rate 10, got %d", updated.TaxRate)
	}

	reread, err := store.GetSettings(ctx, db)
	if err != nil {
		t.Fatalf("Get settings after update: %v", err)
	}
	if !reread.DeliveryFee.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected delivery fee 200, got %s", reread.DeliveryFee)
	}
}

func TestPromoLookup(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	// Seeded by the initial migration.
	promo, err := store.LookupPromo(ctx, db, " code30 ", now)
	if err != nil {
		t.Fatalf("Lookup seeded promo: %v", err)
	}
	if promo.Percent != 30 {
		t.Errorf("Expected 30 percent, got %d", promo.Percent)
	}

	if _, err := store.LookupPromo(ctx, db, "NOSUCH", now); !errors.Is(err, database.ErrPromoInvalid) {
		t.Errorf("Expected ErrPromoInvalid for unknown code, got %v", err)
	}

	expired := time.Now().Add(-time.Hour)
	if err := store.CreatePromo(ctx, db, models.PromoCode{
		Code: "OLD10", Percent: 10, Active: true, ValidUntil: &expired,
	}); err != nil {
		t.Fatalf("Create expired promo: %v", err)
	}
	if _, err := store.LookupPromo(ctx, db, "OLD10", now); !errors.Is(err, database.ErrPromoInvalid) {
		t.Errorf("Expected ErrPromoInvalid for expired code, got %v", err)
	}

	if err := store.CreatePromo(ctx, db, models.PromoCode{
		Code: "PAUSED5", Percent: 5, Active: false,
	}); err != nil {
		t.Fatalf("Create inactive promo: %v", err)
	}
	if _, err := store.LookupPromo(ctx, db, "PAUSED5", now); !errors.Is(err, database.ErrPromoInvalid) {
		t.Errorf("Expected ErrPromoInvalid for inactive code, got %v", err)
	}
}

func TestCartPersistenceRoundTrip(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	missing, err := store.LoadCart(ctx, db, "no-such-cart")
	if err != nil {
		t.Fatalf("Load missing cart: %v", err)
	}
	if len(missing.Lines) != 0 || missing.NextLine != 1 {
		t.Errorf("Missing cart should load empty, got %+v", missing)
	}

	c := cart.New()
	c.Add(cart.AddRequest{
		ProductID: "pizza-1",
		Name:      "Chicken Tikka",
		Size:      "Large",
		UnitPrice: decimal.NewFromInt(1250),
		Quantity:  2,
	})
	c.ApplyPromo("CODE30", 30)

	if err := store.SaveCart(ctx, db, "cart-1", c); err != nil {
		t.Fatalf("Save cart: %v", err)
	}

	loaded, err := store.LoadCart(ctx, db, "cart-1")
	if err != nil {
		t.Fatalf("Load cart: %v", err)
	}
	if len(loaded.Lines) != 1 || loaded.Lines[0].Quantity != 2 {
		t.Errorf("Loaded cart lines wrong: %+v", loaded.Lines)
	}
	if loaded.Promo != "CODE30" || loaded.PromoPct != 30 {
		t.Errorf("Loaded cart promo wrong: %s %d", loaded.Promo, loaded.PromoPct)
	}
	if loaded.NextLine != c.NextLine {
		t.Errorf("Line counter must survive persistence: %d vs %d", loaded.NextLine, c.NextLine)
	}

	if err := store.DeleteCart(ctx, db, "cart-1"); err != nil {
		t.Fatalf("Delete cart: %v", err)
	}
	afterDelete, err := store.LoadCart(ctx, db, "cart-1")
	if err != nil {
		t.Fatalf("Load after delete: %v", err)
	}
	if len(afterDelete.Lines) != 0 {
		t.Errorf("Deleted cart should load empty, got %d lines", len(afterDelete.Lines))
	}
}
