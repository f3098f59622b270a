package shopping

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanningHorizon is the span stamped on lists generated without an
// explicit date range.
const PlanningHorizon = 7 * 24 * time.Hour

// Generator turns planned-meal ingredients and pantry stock into a
// shopping list. It holds no state between calls.
type Generator struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the clock used for generation timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDFunc overrides how item IDs are minted.
func WithIDFunc(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateFromPlan builds a list covering now to now+7 days. recipeNames is
// positionally aligned with ingredients and may be shorter or nil.
func (g *Generator) GenerateFromPlan(ingredients []MealPlanIngredient, pantry []PantryItem, recipeNames []string) GeneratedList {
	now := g.now()
	return g.build(ingredients, pantry, recipeNames, now, DateRange{Desde: now, Hasta: now.Add(PlanningHorizon)})
}

// GenerateForRange is GenerateFromPlan stamped with the plan's own range.
func (g *Generator) GenerateForRange(ingredients []MealPlanIngredient, pantry []PantryItem, recipeNames []string, rango DateRange) GeneratedList {
	return g.build(ingredients, pantry, recipeNames, g.now(), rango)
}

func (g *Generator) build(ingredients []MealPlanIngredient, pantry []PantryItem, recipeNames []string, now time.Time, rango DateRange) GeneratedList {
	agg := g.aggregate(ingredients, recipeNames)
	agg.reconcile(pantry)

	items := agg.list()
	return GeneratedList{
		Items:           items,
		FechaGeneracion: now,
		RangoFechas:     rango,
		TotalItems:      len(items),
		PorCategoria:    GroupByCategory(items),
	}
}

// aggregation is an insertion-ordered map of items keyed by lower-cased name.
type aggregation struct {
	order []string
	items map[string]*Item
}

func (g *Generator) aggregate(ingredients []MealPlanIngredient, recipeNames []string) *aggregation {
	agg := &aggregation{items: make(map[string]*Item)}

	for i, ing := range ingredients {
		recipe := ""
		if i < len(recipeNames) {
			recipe = recipeNames[i]
		}

		key := strings.ToLower(ing.Name)
		if existing, ok := agg.items[key]; ok {
			// Summed in raw units; normalization happened once at first sight.
			existing.Cantidad += ing.Quantity
			if recipe != "" {
				existing.RecetasQueLoUsan = append(existing.RecetasQueLoUsan, recipe)
			}
			continue
		}

		qty, unit := NormalizeUnit(ing.Quantity, ing.Unit)
		item := &Item{
			ID:               g.newID(),
			Nombre:           ing.Name,
			Cantidad:         qty,
			Unidad:           unit,
			Categoria:        ClassifyCategory(ing.Name),
			DePlanSemanal:    true,
			RecetasQueLoUsan: []string{},
		}
		if recipe != "" {
			item.RecetasQueLoUsan = append(item.RecetasQueLoUsan, recipe)
		}
		agg.items[key] = item
		agg.order = append(agg.order, key)
	}

	return agg
}

// reconcile subtracts pantry stock. Each pantry item is applied to the first
// surviving item it fuzzy-matches and never split. Units are not converted.
func (a *aggregation) reconcile(pantry []PantryItem) {
	for _, stock := range pantry {
		for _, key := range a.order {
			item, ok := a.items[key]
			if !ok || !SameIngredient(item.Nombre, stock.Name) {
				continue
			}

			remaining := item.Cantidad - stock.Quantity
			if remaining <= 0 {
				delete(a.items, key)
			} else {
				item.Cantidad = remaining
			}
			break
		}
	}
}

func (a *aggregation) list() []Item {
	items := make([]Item, 0, len(a.items))
	for _, key := range a.order {
		if item, ok := a.items[key]; ok {
			items = append(items, *item)
		}
	}
	return items
}

// GroupByCategory buckets items by category, keeping their relative order.
// Categories with no items are absent from the result.
func GroupByCategory(items []Item) map[Category][]Item {
	groups := make(map[Category][]Item)
	for _, item := range items {
		groups[item.Categoria] = append(groups[item.Categoria], item)
	}
	return groups
}

var defaultGenerator = NewGenerator()

// GenerateFromPlan runs the default generator.
func GenerateFromPlan(ingredients []MealPlanIngredient, pantry []PantryItem, recipeNames []string) GeneratedList {
	return defaultGenerator.GenerateFromPlan(ingredients, pantry, recipeNames)
}
