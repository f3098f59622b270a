package pantry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kecarajocomer/internal/database"
	"kecarajocomer/internal/shopping"

	"github.com/google/uuid"
)

// Repository is a database-backed store of pantry items.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

// Add inserts a new item and returns it with its ID and timestamps set.
func (r *Repository) Add(ctx context.Context, item Item) (*Item, error) {
	now := r.now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pantry_items (id, user_id, name, quantity, unit, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Name, item.Quantity, item.Unit,
		nullableTime(item.ExpiresAt), database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pantry item: %w", err)
	}
	return &item, nil
}

// Get retrieves an item by ID. It returns nil when none exists.
func (r *Repository) Get(ctx context.Context, id string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, quantity, unit, expires_at, created_at, updated_at
		FROM pantry_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pantry item: %w", err)
	}
	return item, nil
}

// List returns a user's items in the order they were added.
func (r *Repository) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, quantity, unit, expires_at, created_at, updated_at
		FROM pantry_items WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pantry item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListExpiring returns items that expire before now+within, soonest first.
// Items already expired are included.
func (r *Repository) ListExpiring(ctx context.Context, userID string, within time.Duration, now time.Time) ([]Item, error) {
	items, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := now.Add(within)
	var expiring []Item
	for _, it := range items {
		if it.ExpiresAt != nil && it.ExpiresAt.Before(limit) {
			expiring = append(expiring, it)
		}
	}
	sortByExpiry(expiring)
	return expiring, nil
}

// UpdateQuantity sets the quantity of an item.
func (r *Repository) UpdateQuantity(ctx context.Context, id string, quantity float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pantry_items SET quantity = ?, updated_at = ? WHERE id = ?`,
		quantity, database.FormatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update pantry item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update pantry item %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Delete removes an item.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	return nil
}

// Consume takes quantity of name out of the pantry, after a recipe was
// cooked. The first item whose name matches the way the shopping list
// reconciles stock is decremented and removed once it reaches zero. It
// reports whether any item matched.
func (r *Repository) Consume(ctx context.Context, userID, name string, quantity float64) (bool, error) {
	items, err := r.List(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, it := range items {
		if !shopping.SameIngredient(it.Name, name) {
			continue
		}
		remaining := it.Quantity - quantity
		if remaining <= 0 {
			return true, r.Delete(ctx, it.ID)
		}
		return true, r.UpdateQuantity(ctx, it.ID, remaining)
	}
	return false, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*Item, error) {
	var (
		item             Item
		expires          sql.NullString
		created, updated string
	)
	if err := s.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Unit, &expires, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if expires.Valid {
		t, err := database.ParseTime(expires.String)
		if err != nil {
			return nil, err
		}
		item.ExpiresAt = &t
	}
	if item.CreatedAt, err = database.ParseTime(created); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = database.ParseTime(updated); err != nil {
		return nil, err
	}
	return &item, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: database.FormatTime(*t), Valid: true}
}
