package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kecarajocomer/internal/config"
	"kecarajocomer/internal/database/dbtest"
	"kecarajocomer/internal/llm/llmtest"
	"kecarajocomer/internal/pantry"
	"kecarajocomer/internal/planner"
	"kecarajocomer/internal/prices"
	"kecarajocomer/internal/recipe"
	"kecarajocomer/internal/shared"
	"kecarajocomer/internal/shopping"
	"kecarajocomer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	week     = time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
)

const suggestedJSON = `{
  "title": "Tortilla de papas",
  "ingredients": [{"name": "Papa", "quantity": 1, "unit": "kg"}, {"name": "Huevos", "quantity": 6, "unit": "unidades"}],
  "steps": ["Freír", "Cuajar"],
  "servings": 4
}`

type fixture struct {
	app     *App
	textGen *llmtest.TextGen
	ensID   string
	guisoID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	exporter, err := storage.NewListStore(filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)
	textGen := &llmtest.TextGen{
		Content: suggestedJSON,
		Usage:   shared.TokenUsage{PromptTokens: 20, CompletionTokens: 30, TotalTokens: 50},
	}
	a := NewApp(&config.Config{DefaultUserID: "u1"}, Deps{
		DB:       dbtest.New(t).SQL,
		TextGen:  textGen,
		Exporter: exporter,
	}, shopping.WithClock(func() time.Time { return fixedNow }))

	ensID, err := a.recipeRepo.Save(ctx, recipe.Recipe{
		Title:    "Ensalada",
		Servings: 2,
		Ingredients: []recipe.Ingredient{
			{Name: "Tomate", Quantity: 300, Unit: "g"},
			{Name: "Lechuga", Quantity: 1, Unit: "unidad"},
		},
	})
	require.NoError(t, err)
	guisoID, err := a.recipeRepo.Save(ctx, recipe.Recipe{
		Title:    "Guiso",
		Servings: 4,
		Ingredients: []recipe.Ingredient{
			{Name: "tomate", Quantity: 400, Unit: "g"},
			{Name: "Arroz", Quantity: 500, Unit: "g"},
		},
	})
	require.NoError(t, err)

	return &fixture{app: a, textGen: textGen, ensID: ensID, guisoID: guisoID}
}

func (f *fixture) savePlan(t *testing.T) {
	t.Helper()
	require.NoError(t, f.app.SavePlan(context.Background(), &planner.MealPlan{
		UserID:    "u1",
		WeekStart: week.AddDate(0, 0, 2), // any day of the week
		Meals: []planner.PlannedMeal{
			{Day: "Monday", MealType: planner.MealAlmuerzo, RecipeID: f.ensID, Servings: 2},
			{Day: "Monday", MealType: planner.MealCena, RecipeID: f.guisoID, Servings: 4},
		},
	}))
}

func TestSavePlan_RejectsUnknownRecipes(t *testing.T) {
	f := newFixture(t)
	err := f.app.SavePlan(context.Background(), &planner.MealPlan{
		UserID:    "u1",
		WeekStart: week,
		Meals:     []planner.PlannedMeal{{RecipeID: "nope"}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateShoppingList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.savePlan(t)

	_, err := f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: "Arroz", Quantity: 200, Unit: "g"})
	require.NoError(t, err)
	_, err = f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: "Lechuga", Quantity: 2, Unit: "unidad"})
	require.NoError(t, err)

	stored, err := f.app.GenerateShoppingList(ctx, "u1", week.AddDate(0, 0, 3))
	require.NoError(t, err)

	list := stored.List
	assert.Equal(t, week, stored.WeekStart)
	assert.Equal(t, week, list.RangoFechas.Desde)
	assert.Equal(t, week.AddDate(0, 0, 7), list.RangoFechas.Hasta)
	assert.True(t, fixedNow.Equal(list.FechaGeneracion))

	require.Equal(t, 2, list.TotalItems)
	tomate := list.Items[0]
	assert.Equal(t, "Tomate", tomate.Nombre)
	assert.Equal(t, 700.0, tomate.Cantidad)
	assert.Equal(t, []string{"Ensalada", "Guiso"}, tomate.RecetasQueLoUsan)
	assert.Equal(t, "Arroz", list.Items[1].Nombre)
	assert.Equal(t, 300.0, list.Items[1].Cantidad)

	// Regenerating replaces the stored list of the week.
	again, err := f.app.GenerateShoppingList(ctx, "u1", week)
	require.NoError(t, err)
	current, err := f.app.CurrentShoppingList(ctx, "u1", week.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, again.ID, current.ID)
}

func TestGenerateShoppingList_NoPlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.GenerateShoppingList(context.Background(), "u1", week)
	assert.ErrorIs(t, err, ErrNoPlan)

	_, err = f.app.CurrentShoppingList(context.Background(), "u1", week)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEditing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.savePlan(t)
	stored, err := f.app.GenerateShoppingList(ctx, "u1", week)
	require.NoError(t, err)

	itemID := stored.List.Items[0].ID
	updated, err := f.app.SetItemPurchased(ctx, "u1", stored.ID, itemID, true)
	require.NoError(t, err)
	assert.True(t, updated.List.Items[0].Comprado)

	_, err = f.app.SetItemPurchased(ctx, "u2", stored.ID, itemID, true)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.app.SetItemPurchased(ctx, "u1", stored.ID, "missing", true)
	assert.ErrorIs(t, err, shopping.ErrItemNotFound)

	item, err := f.app.AddManualItem(ctx, "u1", stored.ID, "Detergente", 1, "L")
	require.NoError(t, err)
	assert.False(t, item.DePlanSemanal)
	assert.Equal(t, shopping.CategoryLimpieza, item.Categoria)

	reloaded, err := f.app.CurrentShoppingList(ctx, "u1", week)
	require.NoError(t, err)
	assert.Equal(t, len(stored.List.Items)+1, reloaded.List.TotalItems)
	assert.True(t, reloaded.List.Items[0].Comprado)
}

func TestRemoveShoppingItemAndDeleteList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.savePlan(t)
	stored, err := f.app.GenerateShoppingList(ctx, "u1", week)
	require.NoError(t, err)
	itemID := stored.List.Items[0].ID

	_, err = f.app.RemoveShoppingItem(ctx, "u2", stored.ID, itemID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.app.RemoveShoppingItem(ctx, "u1", stored.ID, itemID)
	require.NoError(t, err)
	assert.Len(t, updated.List.Items, len(stored.List.Items)-1)
	assert.Equal(t, len(stored.List.Items)-1, updated.List.TotalItems)

	_, err = f.app.RemoveShoppingItem(ctx, "u1", stored.ID, itemID)
	assert.ErrorIs(t, err, shopping.ErrItemNotFound)

	reloaded, err := f.app.CurrentShoppingList(ctx, "u1", week)
	require.NoError(t, err)
	for _, item := range reloaded.List.Items {
		assert.NotEqual(t, itemID, item.ID)
	}

	assert.ErrorIs(t, f.app.DeleteShoppingList(ctx, "u2", stored.ID), ErrNotFound)
	require.NoError(t, f.app.DeleteShoppingList(ctx, "u1", stored.ID))
	_, err = f.app.CurrentShoppingList(ctx, "u1", week)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHasPlanAndRecentPlans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ok, err := f.app.HasPlan(ctx, "u1", week)
	require.NoError(t, err)
	assert.False(t, ok)

	f.savePlan(t)
	// Any day of the week resolves to its Monday.
	ok, err = f.app.HasPlan(ctx, "u1", week.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.app.HasPlan(ctx, "u2", week)
	require.NoError(t, err)
	assert.False(t, ok)

	plans, err := f.app.RecentPlans(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.True(t, plans[0].WeekStart.Equal(week))
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.app.DeleteRecipe(ctx, "missing"), ErrNotFound)
	require.NoError(t, f.app.DeleteRecipe(ctx, f.ensID))

	recipes, err := f.app.ListRecipes(ctx)
	require.NoError(t, err)
	for _, r := range recipes {
		assert.NotEqual(t, f.ensID, r.ID)
	}
}

func TestEstimateShoppingList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.savePlan(t)
	stored, err := f.app.GenerateShoppingList(ctx, "u1", week)
	require.NoError(t, err)

	_, err = f.app.RecordPrice(ctx, prices.Observation{Product: "Tomate", Store: "Verdulería", Price: 1500, Unit: "kg"})
	require.NoError(t, err)

	est, err := f.app.EstimateShoppingList(ctx, "u1", stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, est.Total)
	assert.Contains(t, est.Unpriced, "Arroz")

	report, err := f.app.PriceReport(ctx, "tomate", fixedNow.AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Count)
	require.Len(t, report.Stores, 1)

	_, err = f.app.PriceReport(ctx, "caviar", fixedNow.AddDate(0, -1, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportShoppingList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.app.ExportShoppingList(ctx, "u1", week)
	assert.ErrorIs(t, err, ErrNotFound)

	f.savePlan(t)
	_, err = f.app.GenerateShoppingList(ctx, "u1", week)
	require.NoError(t, err)

	path, err := f.app.ExportShoppingList(ctx, "u1", week)
	require.NoError(t, err)
	loaded, err := f.app.exporter.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TotalItems)
}

func TestSuggestRecipe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: "Papa", Quantity: 2, Unit: "kg"})
	require.NoError(t, err)

	rec, err := f.app.SuggestRecipe(ctx, "u1", "sin carne", 0, true)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Contains(t, f.textGen.Prompts()[0], "- Papa")

	saved, err := f.app.recipeRepo.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)

	usage, err := f.app.UsageReport(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 20, usage[0].TotalPrompt)
}

func TestSuggestRecipe_LLMError(t *testing.T) {
	f := newFixture(t)
	f.textGen.Err = errors.New("quota exceeded")

	_, err := f.app.SuggestRecipe(context.Background(), "u1", "", 2, false)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestMarkCooked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: "Tomate", Quantity: 1000, Unit: "g"})
	require.NoError(t, err)

	missing, err := f.app.MarkCooked(ctx, "u1", f.guisoID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arroz"}, missing)

	items, err := f.app.ListPantry(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 800.0, items[0].Quantity)

	_, err = f.app.MarkCooked(ctx, "u1", "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPantryOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: " ", Quantity: 1})
	assert.Error(t, err)
	_, err = f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: "Sal", Quantity: 0})
	assert.Error(t, err)

	expires := fixedNow.Add(24 * time.Hour)
	yogur, err := f.app.AddPantryItem(ctx, pantry.Item{UserID: "u1", Name: "Yogur", Quantity: 1, Unit: "unidad", ExpiresAt: &expires})
	require.NoError(t, err)

	expiring, err := f.app.ExpiringItems(ctx, "u1", 3, fixedNow)
	require.NoError(t, err)
	require.Len(t, expiring, 1)

	assert.ErrorIs(t, f.app.DeletePantryItem(ctx, "u2", yogur.ID), ErrNotFound)
	require.NoError(t, f.app.DeletePantryItem(ctx, "u1", yogur.ID))
}

func TestCleanupMetrics(t *testing.T) {
	f := newFixture(t)
	n, err := f.app.CleanupMetrics(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, n)
}
