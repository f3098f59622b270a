package planner

import (
	"time"

	"kecarajocomer/internal/shopping"
)

// MealType is the meal of the day a recipe is planned for.
type MealType string

const (
	MealAlmuerzo MealType = "almuerzo"
	MealCena     MealType = "cena"
)

// PlannedMeal is one slot of the weekly plan.
type PlannedMeal struct {
	Day         string   `json:"day"` // time.Weekday name, e.g. "Monday"
	MealType    MealType `json:"meal_type"`
	RecipeID    string   `json:"recipe_id"`
	RecipeTitle string   `json:"recipe_title"`
	Servings    int      `json:"servings"`
}

// MealPlan represents a full weekly meal plan.
type MealPlan struct {
	ID        string        `json:"id,omitempty"`
	UserID    string        `json:"user_id"`
	WeekStart time.Time     `json:"week_start"`
	Meals     []PlannedMeal `json:"meals"`
	CreatedAt time.Time     `json:"created_at"`
}

const weekLength = 7 * 24 * time.Hour

// Range is the week the plan covers, from WeekStart to seven days later.
func (p MealPlan) Range() shopping.DateRange {
	return shopping.DateRange{Desde: p.WeekStart, Hasta: p.WeekStart.Add(weekLength)}
}

// RecipeIDs returns the distinct recipe IDs in meal order.
func (p MealPlan) RecipeIDs() []string {
	seen := make(map[string]bool, len(p.Meals))
	var ids []string
	for _, m := range p.Meals {
		if m.RecipeID == "" || seen[m.RecipeID] {
			continue
		}
		seen[m.RecipeID] = true
		ids = append(ids, m.RecipeID)
	}
	return ids
}
