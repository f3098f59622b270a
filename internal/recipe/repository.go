package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kecarajocomer/internal/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB, log *zap.Logger) *Repository {
	return &Repository{db: d, log: log}
}

// Save inserts or updates a recipe. A recipe without an ID gets one, and
// the assigned ID is returned.
func (r *Repository) Save(ctx context.Context, rec Recipe) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	updatedAt := time.Now()
	if rec.UpdatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, rec.UpdatedAt)
		if err != nil {
			r.log.Warn("unparseable recipe updated_at, using current time",
				zap.String("recipe_id", rec.ID), zap.String("updated_at", rec.UpdatedAt), zap.Error(err))
		} else {
			updatedAt = parsed
		}
	}
	rec.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, title, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Title, string(recipeJSON), database.FormatTime(updatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to save recipe: %w", err)
	}
	return rec.ID, nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// GetByIDs retrieves multiple recipes keyed by ID. Unknown IDs are absent.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) (map[string]Recipe, error) {
	recipes := make(map[string]Recipe, len(ids))
	if len(ids) == 0 {
		return recipes, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := r.scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recipes[rec.ID] = *rec
		}
	}
	return recipes, rows.Err()
}

// List retrieves all recipes ordered by title.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		rec, err := r.scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recipes = append(recipes, *rec)
		}
	}
	return recipes, rows.Err()
}

// Delete removes a recipe.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// scanRecipe skips rows whose JSON no longer decodes, returning nil.
func (r *Repository) scanRecipe(rows *sql.Rows) (*Recipe, error) {
	var id, data string
	if err := rows.Scan(&id, &data); err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		r.log.Warn("skipping recipe with invalid JSON", zap.String("recipe_id", id), zap.Error(err))
		return nil, nil
	}
	return &rec, nil
}
