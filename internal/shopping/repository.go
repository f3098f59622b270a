package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kecarajocomer/internal/database"

	"github.com/google/uuid"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

// Save stores the list for a user's week, replacing any list already saved
// for that week. It returns the list ID.
func (r *Repository) Save(ctx context.Context, userID string, weekStart time.Time, list *GeneratedList) (string, error) {
	listJSON, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	id := uuid.NewString()
	now := database.FormatTime(r.now())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shopping_lists (id, user_id, week_start, list_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			id = excluded.id,
			list_data = excluded.list_data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		id, userID, database.FormatDate(weekStart), string(listJSON), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert shopping list: %w", err)
	}

	return id, nil
}

// Get retrieves a shopping list by ID. It returns nil when none exists.
func (r *Repository) Get(ctx context.Context, id string) (*StoredList, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, list_data, created_at, updated_at
		FROM shopping_lists WHERE id = ?`, id)

	stored, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list by ID: %w", err)
	}
	return stored, nil
}

// GetByUserAndWeek retrieves a shopping list by user ID and week start date.
func (r *Repository) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*StoredList, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, list_data, created_at, updated_at
		FROM shopping_lists WHERE user_id = ? AND week_start = ?`,
		userID, database.FormatDate(weekStart))

	stored, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list by user and week: %w", err)
	}
	return stored, nil
}

// Update overwrites the items of an existing list.
func (r *Repository) Update(ctx context.Context, id string, list *GeneratedList) error {
	listJSON, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE shopping_lists SET list_data = ?, updated_at = ? WHERE id = ?`,
		string(listJSON), database.FormatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update shopping list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update shopping list %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Delete removes a shopping list.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	return nil
}

func scanList(row *sql.Row) (*StoredList, error) {
	var (
		stored                       StoredList
		week, data, created, updated string
	)
	if err := row.Scan(&stored.ID, &stored.UserID, &week, &data, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if stored.WeekStart, err = database.ParseDate(week); err != nil {
		return nil, err
	}
	if stored.CreatedAt, err = database.ParseTime(created); err != nil {
		return nil, err
	}
	if stored.UpdatedAt, err = database.ParseTime(updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &stored.List); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	if stored.List.PorCategoria == nil {
		stored.List.PorCategoria = map[Category][]Item{}
	}
	return &stored, nil
}
