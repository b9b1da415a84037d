package integration

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/models"
	"github.com/abdulahadd002/cheezy-heaven/internal/store"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, db, "ali@example.com", "Ali", "03001234567", "hash")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	if user.Role != models.RoleCustomer {
		t.Errorf("Expected role customer, got %s", user.Role)
	}

	if _, err := store.CreateUser(ctx, db, "ali@example.com", "Other Ali", "", "hash2"); !errors.Is(err, database.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, db, "fav@example.com", "Fav", "", "hash")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	favorites, err := store.ToggleFavorite(ctx, db, user.ID, "pizza-1")
	if err != nil {
		t.Fatalf("Toggle on: %v", err)
	}
	if !reflect.DeepEqual(favorites, []string{"pizza-1"}) {
		t.Errorf("Expected [pizza-1], got %v", favorites)
	}

	favorites, err = store.ToggleFavorite(ctx, db, user.ID, "pizza-1")
	if err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if len(favorites) != 0 {
		t.Errorf("Expected empty favorites after second toggle, got %v", favorites)
	}
}

func TestMergeFavorites(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, db, "merge@example.com", "Merge", "", "hash")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	for _, id := range []string{"pizza-1", "burger-2"} {
		if _, err := store.ToggleFavorite(ctx, db, user.ID, id); err != nil {
			t.Fatalf("Seed favorite %s: %v", id, err)
		}
	}

	merged, err := store.MergeFavorites(ctx, db, user.ID, []string{"burger-2", "wrap-3", "fries-4"})
	if err != nil {
		t.Fatalf("Merge favorites: %v", err)
	}

	expected := []string{"pizza-1", "burger-2", "wrap-3", "fries-4"}
	if !reflect.DeepEqual(merged, expected) {
		t.Errorf("Expected %v, got %v", expected, merged)
	}

	// Merging the same set again must not grow or reorder anything.
	again, err := store.MergeFavorites(ctx, db, user.ID, []string{"wrap-3", "burger-2"})
	if err != nil {
		t.Fatalf("Merge favorites again: %v", err)
	}
	if !reflect.DeepEqual(again, expected) {
		t.Errorf("Expected %v after idempotent merge, got %v", expected, again)
	}
}

func TestAddressDefaultIsExclusive(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, db, "addr@example.com", "Addr", "", "hash")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	first, err := store.AddAddress(ctx, db, user.ID, models.Address{
		Label: "Home", Address: "House 12, Street 4, Lahore", Default: true,
	})
	if err != nil {
		t.Fatalf("Add first address: %v", err)
	}

	updated, err := store.AddAddress(ctx, db, user.ID, models.Address{
		Label: "Work", Address: "Office 3, Block B, Lahore", Default: true,
	})
	if err != nil {
		t.Fatalf("Add second address: %v", err)
	}

	if len(updated.Addresses) != 2 {
		t.Fatalf("Expected 2 addresses, got %d", len(updated.Addresses))
	}

	defaults := 0
	for _, a := range updated.Addresses {
		if a.Default {
			defaults++
			if a.Label != "Work" {
				t.Errorf("Expected Work to be default, got %s", a.Label)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("Expected exactly 1 default address, got %d", defaults)
	}

	afterSet, err := store.SetDefaultAddress(ctx, db, user.ID, first.Addresses[0].ID)
	if err != nil {
		t.Fatalf("Set default address: %v", err)
	}
	for _, a := range afterSet.Addresses {
		if a.Default != (a.ID == first.Addresses[0].ID) {
			t.Errorf("Default flag wrong for %s", a.Label)
		}
	}
}
