package app

import (
	"context"
	"fmt"
	"time"

	"kecarajocomer/internal/pantry"
	"kecarajocomer/internal/planner"
	"kecarajocomer/internal/prices"
	"kecarajocomer/internal/shopping"

	"go.uber.org/zap"
)

// exportVersionsKept is how many exported files are kept per user and week.
const exportVersionsKept = 5

// GenerateShoppingList builds the list for the user's plan of the week
// starting at weekStart, reconciled against the current pantry, and stores
// it in place of any earlier list for that week.
func (a *App) GenerateShoppingList(ctx context.Context, userID string, weekStart time.Time) (*shopping.StoredList, error) {
	weekStart = planner.WeekStartOf(weekStart)
	log := a.log.With(zap.String("user_id", userID), zap.String("week", weekStart.Format("2006-01-02")))

	plan, err := a.planRepo.GetForWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	if plan == nil {
		return nil, ErrNoPlan
	}

	recipes, err := a.recipeRepo.GetByIDs(ctx, plan.RecipeIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	if missing := len(plan.RecipeIDs()) - len(recipes); missing > 0 {
		log.Warn("meal plan references unknown recipes", zap.Int("missing", missing))
	}
	ingredients, titles := planner.ExpandIngredients(*plan, recipes)

	stock, err := a.pantryRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}

	list := a.lists.GenerateForRange(ingredients, pantry.AsStock(stock), titles, plan.Range())

	id, err := a.listRepo.Save(ctx, userID, weekStart, &list)
	if err != nil {
		return nil, err
	}
	a.collectors.ObserveList(list.TotalItems)
	log.Info("shopping list generated",
		zap.String("list_id", id),
		zap.Int("ingredients", len(ingredients)),
		zap.Int("items", list.TotalItems))

	return a.listRepo.Get(ctx, id)
}

// CurrentShoppingList returns the user's list for the week containing now,
// or ErrNotFound.
func (a *App) CurrentShoppingList(ctx context.Context, userID string, now time.Time) (*shopping.StoredList, error) {
	stored, err := a.listRepo.GetByUserAndWeek(ctx, userID, planner.WeekStartOf(now))
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNotFound
	}
	return stored, nil
}

// userList loads a stored list owned by userID.
func (a *App) userList(ctx context.Context, userID, listID string) (*shopping.StoredList, error) {
	stored, err := a.listRepo.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.UserID != userID {
		return nil, ErrNotFound
	}
	return stored, nil
}

// SetItemPurchased marks an item of a stored list as bought or not.
func (a *App) SetItemPurchased(ctx context.Context, userID, listID, itemID string, purchased bool) (*shopping.StoredList, error) {
	stored, err := a.userList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if err := shopping.SetPurchased(&stored.List, itemID, purchased); err != nil {
		return nil, err
	}
	if err := a.listRepo.Update(ctx, listID, &stored.List); err != nil {
		return nil, err
	}
	return stored, nil
}

// AddManualItem appends a user-entered item to a stored list.
func (a *App) AddManualItem(ctx context.Context, userID, listID, name string, quantity float64, unit string) (shopping.Item, error) {
	stored, err := a.userList(ctx, userID, listID)
	if err != nil {
		return shopping.Item{}, err
	}
	item := shopping.AddManualItem(&stored.List, name, quantity, unit)
	if err := a.listRepo.Update(ctx, listID, &stored.List); err != nil {
		return shopping.Item{}, err
	}
	return item, nil
}

// RemoveShoppingItem drops an item from a stored list.
func (a *App) RemoveShoppingItem(ctx context.Context, userID, listID, itemID string) (*shopping.StoredList, error) {
	stored, err := a.userList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if err := shopping.RemoveItem(&stored.List, itemID); err != nil {
		return nil, err
	}
	if err := a.listRepo.Update(ctx, listID, &stored.List); err != nil {
		return nil, err
	}
	return stored, nil
}

// DeleteShoppingList removes one of the user's stored lists.
func (a *App) DeleteShoppingList(ctx context.Context, userID, listID string) error {
	if _, err := a.userList(ctx, userID, listID); err != nil {
		return err
	}
	return a.listRepo.Delete(ctx, listID)
}

// EstimateShoppingList prices the pending items of a stored list.
func (a *App) EstimateShoppingList(ctx context.Context, userID, listID string) (prices.Estimate, error) {
	stored, err := a.userList(ctx, userID, listID)
	if err != nil {
		return prices.Estimate{}, err
	}
	return prices.EstimateList(ctx, a.priceRepo, shopping.PendingItems(stored.List))
}

// ExportShoppingList writes the user's list of the week to a versioned
// JSON file and returns its path.
func (a *App) ExportShoppingList(ctx context.Context, userID string, weekStart time.Time) (string, error) {
	if a.exporter == nil {
		return "", fmt.Errorf("export directory not configured")
	}
	weekStart = planner.WeekStartOf(weekStart)

	stored, err := a.listRepo.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", ErrNotFound
	}

	path, err := a.exporter.Save(userID, weekStart, stored.List)
	if err != nil {
		return "", err
	}
	if err := a.exporter.RemoveStaleVersions(userID, weekStart, exportVersionsKept); err != nil {
		a.log.Warn("failed to clean up stale exports", zap.Error(err))
	}
	return path, nil
}
