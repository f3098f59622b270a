package planner

import (
	"time"

	"kecarajocomer/internal/recipe"
	"kecarajocomer/internal/shopping"
)

// ExpandIngredients flattens a plan into one ingredient use per recipe
// ingredient per planned meal. The second result holds, at the same index,
// the title of the recipe each ingredient came from. Meals whose recipe is
// not in recipes are skipped.
func ExpandIngredients(plan MealPlan, recipes map[string]recipe.Recipe) ([]shopping.MealPlanIngredient, []string) {
	var (
		ingredients []shopping.MealPlanIngredient
		titles      []string
	)
	for _, meal := range plan.Meals {
		rec, ok := recipes[meal.RecipeID]
		if !ok {
			continue
		}

		factor := 1.0
		if meal.Servings > 0 && rec.Servings > 0 {
			factor = float64(meal.Servings) / float64(rec.Servings)
		}

		for _, ing := range rec.Ingredients {
			ingredients = append(ingredients, shopping.MealPlanIngredient{
				Name:     ing.Name,
				Quantity: ing.Quantity * factor,
				Unit:     ing.Unit,
			})
			titles = append(titles, rec.Title)
		}
	}
	return ingredients, titles
}

// WeekStartOf returns midnight of the Monday of the week containing t, in
// t's location.
func WeekStartOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// GetNextMonday returns the start of the week after the one containing t.
func GetNextMonday(t time.Time) time.Time {
	start := WeekStartOf(t)
	y, m, d := start.Date()
	return time.Date(y, m, d+7, 0, 0, 0, 0, start.Location())
}
