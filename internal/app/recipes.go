package app

import (
	"context"
	"fmt"

	"kecarajocomer/internal/recipe"

	"go.uber.org/zap"
)

// SuggestRecipe asks the LLM for a recipe built around the user's pantry.
// When save is set the recipe is added to the catalog and gets an ID.
func (a *App) SuggestRecipe(ctx context.Context, userID, preferences string, servings int, save bool) (*recipe.Recipe, error) {
	stock, err := a.pantryRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	names := make([]string, 0, len(stock))
	for _, it := range stock {
		names = append(names, it.Name)
	}

	rec, meta, err := a.suggester.Suggest(ctx, recipe.SuggestRequest{
		PantryItems: names,
		Preferences: preferences,
		Servings:    servings,
	})
	a.recordAgent(ctx, meta)
	if err != nil {
		return nil, err
	}

	if save {
		id, err := a.recipeRepo.Save(ctx, *rec)
		if err != nil {
			return nil, err
		}
		rec.ID = id
	}
	a.log.Info("recipe suggested", zap.String("user_id", userID), zap.String("title", rec.Title), zap.Bool("saved", save))
	return rec, nil
}

// ImportRecipe clips a recipe from a web page into the catalog.
func (a *App) ImportRecipe(ctx context.Context, url string) (*recipe.Recipe, error) {
	rec, meta, err := a.recipeClipper.ClipURL(ctx, url)
	a.recordAgent(ctx, meta)
	if err != nil {
		return nil, err
	}
	a.log.Info("recipe imported", zap.String("url", url), zap.String("recipe_id", rec.ID))
	return rec, nil
}

// ListRecipes returns the catalog ordered by title.
func (a *App) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return a.recipeRepo.List(ctx)
}

// DeleteRecipe removes a recipe from the catalog.
func (a *App) DeleteRecipe(ctx context.Context, id string) error {
	rec, err := a.recipeRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	return a.recipeRepo.Delete(ctx, id)
}

// MarkCooked takes a recipe's ingredients, scaled to servings, out of the
// user's pantry. It returns the names of the ingredients that had no
// pantry match.
func (a *App) MarkCooked(ctx context.Context, userID, recipeID string, servings int) ([]string, error) {
	rec, err := a.recipeRepo.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	factor := 1.0
	if servings > 0 && rec.Servings > 0 {
		factor = float64(servings) / float64(rec.Servings)
	}

	missing := []string{}
	for _, ing := range rec.Ingredients {
		ok, err := a.pantryRepo.Consume(ctx, userID, ing.Name, ing.Quantity*factor)
		if err != nil {
			return nil, fmt.Errorf("failed to consume %s: %w", ing.Name, err)
		}
		if !ok {
			missing = append(missing, ing.Name)
		}
	}
	a.log.Info("recipe cooked", zap.String("user_id", userID), zap.String("recipe_id", recipeID), zap.Int("missing", len(missing)))
	return missing, nil
}
