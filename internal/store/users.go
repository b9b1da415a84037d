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

const userColumns = `id, email, name, phone, role, addresses, favorites, created_at, updated_at, version`

func scanUser(row rowScanner) (*models.UserProfile, error) {
	u := &models.UserProfile{}
	var addresses, favorites []byte

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.Role,
		&addresses,
		&favorites,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(addresses, &u.Addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	if err := unmarshalJSONB(favorites, &u.Favorites); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	if u.Addresses == nil {
		u.Addresses = []models.Address{}
	}
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	return u, nil
}

// CreateUser creates the auth identity and the profile as one record
// sharing one id. The email is immutable after this point.
func CreateUser(ctx context.Context, db *sql.DB, email, name, phone, passwordHash string) (*models.UserProfile, error) {
	query := `
		INSERT INTO users (id, email, name, phone, role, password_hash, addresses, favorites,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, '[]', '[]', NOW(), NOW(), 1)
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query,
		uuid.NewString(), email, name, phone, models.RoleCustomer, passwordHash))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id string) (*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetCredentials looks a user up by email for login, returning the
// profile together with the stored password hash.
func GetCredentials(ctx context.Context, db *sql.DB, email string) (*models.UserProfile, string, error) {
	u := &models.UserProfile{}
	var addresses, favorites []byte
	var passwordHash string

	query := `
		SELECT id, email, name, phone, role, addresses, favorites, created_at, updated_at, version,
		       password_hash
		FROM users WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &addresses, &favorites,
		&u.CreatedAt, &u.UpdatedAt, &u.Version, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", database.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("get credentials: %w", err)
	}

	if err := unmarshalJSONB(addresses, &u.Addresses); err != nil {
		return nil, "", fmt.Errorf("decode addresses: %w", err)
	}
	if err := unmarshalJSONB(favorites, &u.Favorites); err != nil {
		return nil, "", fmt.Errorf("decode favorites: %w", err)
	}
	return u, passwordHash, nil
}

// UpdateProfile changes the mutable profile fields. Email is not among them.
func UpdateProfile(ctx context.Context, db *sql.DB, id, name, phone string) (*models.UserProfile, error) {
	query := `
		UPDATE users
		SET name = $2, phone = $3, updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query, id, name, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func AddAddress(ctx context.Context, db *sql.DB, userID string, addr models.Address) (*models.UserProfile, error) {
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}
	return mutateAddresses(ctx, db, userID, func(addresses []models.Address) []models.Address {
		if addr.Default {
			for i := range addresses {
				addresses[i].Default = false
			}
		}
		return append(addresses, addr)
	})
}

func RemoveAddress(ctx context.Context, db *sql.DB, userID, addressID string) (*models.UserProfile, error) {
	return mutateAddresses(ctx, db, userID, func(addresses []models.Address) []models.Address {
		kept := addresses[:0]
		for _, a := range addresses {
			if a.ID != addressID {
				kept = append(kept, a)
			}
		}
		return kept
	})
}

func SetDefaultAddress(ctx context.Context, db *sql.DB, userID, addressID string) (*models.UserProfile, error) {
	return mutateAddresses(ctx, db, userID, func(addresses []models.Address) []models.Address {
		for i := range addresses {
			addresses[i].Default = addresses[i].ID == addressID
		}
		return addresses
	})
}

func mutateAddresses(ctx context.Context, db *sql.DB, userID string, fn func([]models.Address) []models.Address) (*models.UserProfile, error) {
	var user *models.UserProfile

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var raw []byte
		err := tx.QueryRowContext(ctx,
			`SELECT addresses FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&raw)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		var addresses []models.Address
		if err := unmarshalJSONB(raw, &addresses); err != nil {
			return fmt.Errorf("decode addresses: %w", err)
		}

		updated, err := marshalJSONB(fn(addresses))
		if err != nil {
			return fmt.Errorf("encode addresses: %w", err)
		}

		user, err = scanUser(tx.QueryRowContext(ctx,
			`UPDATE users SET addresses = $2, updated_at = NOW(), version = version + 1
			 WHERE id = $1
			 RETURNING `+userColumns, userID, updated))
		if err != nil {
			return fmt.Errorf("update addresses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleFavorite flips a product's membership in the user's favorites set
// and returns the new set.
func ToggleFavorite(ctx context.Context, db *sql.DB, userID, productID string) ([]string, error) {
	return mutateFavorites(ctx, db, userID, func(favorites []string) []string {
		for i, id := range favorites {
			if id == productID {
				return append(favorites[:i], favorites[i+1:]...)
			}
		}
		return append(favorites, productID)
	})
}

// MergeFavorites unions the guest-local favorites with the stored set.
// Remote entries keep their position; new guest entries are appended.
// The write is skipped when the merge adds nothing.
func MergeFavorites(ctx context.Context, db *sql.DB, userID string, guestFavorites []string) ([]string, error) {
	return mutateFavorites(ctx, db, userID, func(favorites []string) []string {
		seen := make(map[string]bool, len(favorites))
		for _, id := range favorites {
			seen[id] = true
		}
		for _, id := range guestFavorites {
			if !seen[id] {
				seen[id] = true
				favorites = append(favorites, id)
			}
		}
		return favorites
	})
}

func mutateFavorites(ctx context.Context, db *sql.DB, userID string, fn func([]string) []string) ([]string, error) {
	var result []string

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var raw []byte
		err := tx.QueryRowContext(ctx,
			`SELECT favorites FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&raw)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		var favorites []string
		if err := unmarshalJSONB(raw, &favorites); err != nil {
			return fmt.Errorf("decode favorites: %w", err)
		}

		before := len(favorites)
		favorites = fn(favorites)
		result = favorites
		if result == nil {
			result = []string{}
		}

		if len(favorites) == before && sameSet(raw, favorites) {
			return nil
		}

		updated, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode favorites: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET favorites = $2, updated_at = NOW(), version = version + 1
			 WHERE id = $1`, userID, updated)
		if err != nil {
			return fmt.Errorf("update favorites: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func sameSet(raw []byte, favorites []string) bool {
	var stored []string
	if err := unmarshalJSONB(raw, &stored); err != nil {
		return false
	}
	if len(stored) != len(favorites) {
		return false
	}
	for i := range stored {
		if stored[i] != favorites[i] {
			return false
		}
	}
	return true
}
