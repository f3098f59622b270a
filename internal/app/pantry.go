package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kecarajocomer/internal/pantry"
	"kecarajocomer/internal/prices"
)

// AddPantryItem stores an item in the user's pantry.
func (a *App) AddPantryItem(ctx context.Context, item pantry.Item) (*pantry.Item, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("pantry item needs a name")
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("pantry item quantity must be positive, got %v", item.Quantity)
	}
	return a.pantryRepo.Add(ctx, item)
}

// ListPantry returns the user's pantry in insertion order.
func (a *App) ListPantry(ctx context.Context, userID string) ([]pantry.Item, error) {
	return a.pantryRepo.List(ctx, userID)
}

// DeletePantryItem removes one of the user's pantry items.
func (a *App) DeletePantryItem(ctx context.Context, userID, id string) error {
	item, err := a.pantryRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrNotFound
	}
	return a.pantryRepo.Delete(ctx, id)
}

// ExpiringItems returns pantry items expiring within days of now.
func (a *App) ExpiringItems(ctx context.Context, userID string, days int, now time.Time) ([]pantry.Item, error) {
	return a.pantryRepo.ListExpiring(ctx, userID, time.Duration(days)*24*time.Hour, now)
}

// PriceReport is the price history summary and current store ranking of a
// product.
type PriceReport struct {
	Summary prices.Summary      `json:"summary"`
	Stores  []prices.StoreQuote `json:"stores"`
}

// RecordPrice stores a price observation.
func (a *App) RecordPrice(ctx context.Context, o prices.Observation) (*prices.Observation, error) {
	return a.priceRepo.Record(ctx, o)
}

// PriceReport summarizes a product's prices since the given time.
func (a *App) PriceReport(ctx context.Context, product string, since time.Time) (*PriceReport, error) {
	history, err := a.priceRepo.History(ctx, product, since)
	if err != nil {
		return nil, err
	}
	latest, err := a.priceRepo.Latest(ctx, product)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 && len(latest) == 0 {
		return nil, ErrNotFound
	}
	return &PriceReport{Summary: prices.Summarize(history), Stores: prices.CompareStores(latest)}, nil
}
