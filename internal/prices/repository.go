package prices

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kecarajocomer/internal/database"

	"github.com/google/uuid"
)

// Repository is a database-backed store of price observations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Record stores an observation. A zero ObservedAt means now.
func (r *Repository) Record(ctx context.Context, o Observation) (*Observation, error) {
	if o.Product == "" || o.Store == "" {
		return nil, fmt.Errorf("observation needs a product and a store")
	}
	if o.Price < 0 {
		return nil, fmt.Errorf("observation price must not be negative, got %v", o.Price)
	}
	o.ID = uuid.NewString()
	if o.ObservedAt.IsZero() {
		o.ObservedAt = time.Now()
	}
	o.ObservedAt = o.ObservedAt.UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_observations (id, product, store, price, unit, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.Product, o.Store, o.Price, o.Unit, database.FormatTime(o.ObservedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to record price observation: %w", err)
	}
	return &o, nil
}

// History returns the observations of product since the given time,
// oldest first. Products match case-insensitively.
func (r *Repository) History(ctx context.Context, product string, since time.Time) ([]Observation, error) {
	return r.query(ctx, `
		SELECT id, product, store, price, unit, observed_at FROM price_observations
		WHERE lower(product) = lower(?) AND observed_at >= ?
		ORDER BY observed_at, rowid`, product, database.FormatTime(since))
}

// Latest returns the most recent observation of product at each store.
func (r *Repository) Latest(ctx context.Context, product string) ([]Observation, error) {
	return r.query(ctx, `
		SELECT o.id, o.product, o.store, o.price, o.unit, o.observed_at
		FROM price_observations o
		WHERE lower(o.product) = lower(?)
		  AND o.observed_at = (
			SELECT max(i.observed_at) FROM price_observations i
			WHERE lower(i.product) = lower(o.product) AND i.store = o.store)
		ORDER BY o.store`, product)
}

// Products lists the distinct product names with observations.
func (r *Repository) Products(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT product FROM price_observations ORDER BY product`)
	if err != nil {
		return nil, fmt.Errorf("failed to list priced products: %w", err)
	}
	defer rows.Close()

	var products []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]Observation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			o        Observation
			observed string
		)
		if err := rows.Scan(&o.ID, &o.Product, &o.Store, &o.Price, &o.Unit, &observed); err != nil {
			return nil, fmt.Errorf("failed to scan price observation: %w", err)
		}
		if o.ObservedAt, err = database.ParseTime(observed); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
