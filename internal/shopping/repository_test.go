package shopping_test

import (
	"context"
	"testing"
	"time"

	"kecarajocomer/internal/database/dbtest"
	"kecarajocomer/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := shopping.NewRepository(dbtest.New(t).SQL)
	week := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)

	list := shopping.GenerateFromPlan([]shopping.MealPlanIngredient{
		{Name: "Tomate", Quantity: 500, Unit: "g"},
		{Name: "Arroz", Quantity: 1, Unit: "kg"},
	}, nil, []string{"Ensalada", "Risotto"})

	var id string
	t.Run("Save", func(t *testing.T) {
		var err error
		id, err = repo.Save(ctx, "user-1", week, &list)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("Get", func(t *testing.T) {
		stored, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "user-1", stored.UserID)
		assert.Equal(t, "2024-05-13", stored.WeekStart.Format("2006-01-02"))
		require.Len(t, stored.List.Items, 2)
		assert.Equal(t, "Tomate", stored.List.Items[0].Nombre)
		assert.Equal(t, []string{"Ensalada"}, stored.List.Items[0].RecetasQueLoUsan)
		assert.Len(t, stored.List.PorCategoria[shopping.CategoryVerduleria], 1)
	})

	t.Run("GetByUserAndWeek", func(t *testing.T) {
		stored, err := repo.GetByUserAndWeek(ctx, "user-1", week)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, id, stored.ID)

		other, err := repo.GetByUserAndWeek(ctx, "user-2", week)
		require.NoError(t, err)
		assert.Nil(t, other)
	})

	t.Run("Update", func(t *testing.T) {
		stored, err := repo.Get(ctx, id)
		require.NoError(t, err)

		require.NoError(t, shopping.SetPurchased(&stored.List, stored.List.Items[0].ID, true))
		require.NoError(t, repo.Update(ctx, id, &stored.List))

		reloaded, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, reloaded.List.Items[0].Comprado)

		assert.Error(t, repo.Update(ctx, "missing", &stored.List))
	})

	t.Run("SaveReplacesWeek", func(t *testing.T) {
		empty := shopping.GenerateFromPlan(nil, nil, nil)
		newID, err := repo.Save(ctx, "user-1", week, &empty)
		require.NoError(t, err)
		assert.NotEqual(t, id, newID)

		old, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, old)

		stored, err := repo.GetByUserAndWeek(ctx, "user-1", week)
		require.NoError(t, err)
		assert.Equal(t, newID, stored.ID)
		assert.Empty(t, stored.List.Items)
		id = newID
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, id))
		stored, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}
