package acceptance_tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"kecarajocomer/internal/api"
	"kecarajocomer/internal/app"
	"kecarajocomer/internal/config"
	"kecarajocomer/internal/database"
	"kecarajocomer/internal/llm/llmtest"
	"kecarajocomer/internal/metrics"
	"kecarajocomer/internal/prices"
	"kecarajocomer/internal/recipe"
	"kecarajocomer/internal/shared"
	"kecarajocomer/internal/shopping"
	"kecarajocomer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jwtSecret = "acceptance-secret"

// Monday of the planned week.
var now = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

const milanesaPage = `<html><head><title>Milanesas de la abuela</title></head>
<body><nav>Inicio | Recetas</nav>
<article><h1>Milanesas</h1><p>1 kg de carne, 200 g de pan rallado y 2 huevos.</p></article>
<script>trackVisit()</script></body></html>`

const milanesaJSON = `{
  "title": "Milanesas",
  "ingredients": [
    {"name": "Carne", "quantity": 1, "unit": "kg"},
    {"name": "Pan rallado", "quantity": 200, "unit": "g"},
    {"name": "Huevos", "quantity": 2, "unit": "unidades"}
  ],
  "steps": ["Batir los huevos", "Empanar", "Freír"],
  "servings": 2
}`

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type env struct {
	*client
	app        *app.App
	collectors *metrics.Collectors
	exporter   *storage.ListStore
}

func setup(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{JWTSecret: jwtSecret, DatabasePath: filepath.Join(dir, "app.db"), Port: "0"}
	db, err := database.NewDB(cfg.DatabasePath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exporter, err := storage.NewListStore(filepath.Join(dir, "exports"))
	require.NoError(t, err)

	collectors := metrics.NewCollectors()
	a := app.NewApp(cfg, app.Deps{
		DB: db.SQL,
		TextGen: &llmtest.TextGen{
			Content: milanesaJSON,
			Usage:   shared.TokenUsage{Model: "test", PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		},
		Collectors: collectors,
		Exporter:   exporter,
		Log:        zap.NewNop(),
	}, shopping.WithClock(func() time.Time { return now }))

	srv := api.NewServer(a, collectors, zap.NewNop(), api.WithClock(func() time.Time { return now }))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	token, err := api.IssueToken(jwtSecret, "ana", time.Hour)
	require.NoError(t, err)
	return &env{
		client:     &client{t: t, base: ts.URL, token: token},
		app:        a,
		collectors: collectors,
		exporter:   exporter,
	}
}

func TestWeeklyShoppingWorkflow(t *testing.T) {
	e := setup(t)
	c := e.client

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, milanesaPage)
	}))
	defer page.Close()

	// 1. Import a recipe from the web.
	var rec recipe.Recipe
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/recipes/import", map[string]string{"url": page.URL}, &rec))
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, page.URL, rec.Source)

	// 2. Stock the pantry.
	for _, item := range []map[string]any{
		{"name": "Huevos", "quantity": 6, "unit": "unidades"},
		{"name": "Pan rallado", "quantity": 100, "unit": "g"},
	} {
		require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/pantry", item, nil))
	}

	// 3. Plan the week: lunch for four on Monday, dinner for two on Tuesday.
	plan := map[string]any{
		"week_start": "2024-05-20",
		"meals": []map[string]any{
			{"day": "Monday", "meal_type": "almuerzo", "recipe_id": rec.ID, "servings": 4},
			{"day": "Tuesday", "meal_type": "cena", "recipe_id": rec.ID, "servings": 2},
		},
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/meal-plans", plan, nil))

	// 4. Generate the list: 3 kg carne, 600 g pan rallado minus 100 g, huevos covered.
	var stored shopping.StoredList
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/shopping-lists/generate", nil, &stored))
	list := stored.List
	require.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.TotalItems)

	carne, pan := list.Items[0], list.Items[1]
	assert.Equal(t, "Carne", carne.Nombre)
	assert.Equal(t, 3.0, carne.Cantidad)
	assert.Equal(t, "kg", carne.Unidad)
	assert.Equal(t, shopping.CategoryCarniceria, carne.Categoria)
	assert.Equal(t, []string{"Milanesas", "Milanesas"}, carne.RecetasQueLoUsan)
	assert.Equal(t, "Pan rallado", pan.Nombre)
	assert.InDelta(t, 500.0, pan.Cantidad, 1e-9)
	assert.Equal(t, "g", pan.Unidad)
	assert.True(t, list.RangoFechas.Desde.Equal(now.Truncate(24*time.Hour)))
	assert.True(t, list.RangoFechas.Hasta.Equal(list.RangoFechas.Desde.AddDate(0, 0, 7)))

	// 5. Tick items off and add a manual one.
	path := "/api/shopping-lists/" + stored.ID
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, path+"/items/"+carne.ID, map[string]bool{"comprado": true}, nil))
	var manual shopping.Item
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, path+"/items", map[string]any{"nombre": "Detergente", "cantidad": 1, "unidad": "L"}, &manual))
	assert.False(t, manual.DePlanSemanal)

	var current shopping.StoredList
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/shopping-lists/current", nil, &current))
	assert.Equal(t, stored.ID, current.ID)
	assert.Equal(t, 3, current.List.TotalItems)
	assert.True(t, current.List.Items[0].Comprado)
	assert.Len(t, current.List.PorCategoria[shopping.CategoryLimpieza], 1)

	// 6. Estimate the pending items with recorded prices.
	for _, o := range []prices.Observation{
		{Product: "Carne", Store: "Coto", Price: 6000, Unit: "kg", ObservedAt: now.Add(-time.Hour)},
		{Product: "Pan rallado", Store: "Coto", Price: 900, Unit: "500 g", ObservedAt: now.Add(-time.Hour)},
		{Product: "Pan rallado", Store: "Día", Price: 850, Unit: "500 g", ObservedAt: now.Add(-time.Hour)},
	} {
		require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/prices", o, nil))
	}
	var est prices.Estimate
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, path+"/estimate", nil, &est))
	require.Len(t, est.Lines, 1, "bought items are not estimated")
	assert.Equal(t, "Pan rallado", est.Lines[0].Nombre)
	assert.Equal(t, "Día", est.Lines[0].Store)
	assert.Equal(t, 850.0, est.Total)
	assert.Equal(t, []string{"Detergente"}, est.Unpriced)

	// 7. Export the list as a versioned file.
	exported, err := e.app.ExportShoppingList(t.Context(), "ana", now)
	require.NoError(t, err)
	saved, err := e.exporter.Load(exported)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.TotalItems)

	// 8. Cooking consumes the pantry.
	var cooked map[string][]string
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/recipes/"+rec.ID+"/cooked", map[string]int{"servings": 2}, &cooked))
	assert.Equal(t, []string{"Carne"}, cooked["sin_stock"])

	var pantryItems []map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/pantry", nil, &pantryItems))
	require.Len(t, pantryItems, 1)
	assert.Equal(t, "Huevos", pantryItems[0]["name"])
	assert.Equal(t, 4.0, pantryItems[0]["quantity"])
}

func TestWorkflow_RequiresToken(t *testing.T) {
	c := setup(t).client
	c.token = ""
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/pantry", nil, nil))

	c.token = "garbage"
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/pantry", nil, nil))
}

func TestWorkflow_NoPlan(t *testing.T) {
	e := setup(t)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/shopping-lists/generate?week=2024-05-27", nil, nil))
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/shopping-lists/current", nil, nil))

	_, err := e.app.ExportShoppingList(t.Context(), "ana", now)
	assert.ErrorIs(t, err, app.ErrNotFound)
}

func TestWorkflow_EveryPantryItemCovered(t *testing.T) {
	e := setup(t)
	c := e.client

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, milanesaPage)
	}))
	defer page.Close()

	var rec recipe.Recipe
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/recipes/import", map[string]string{"url": page.URL}, &rec))
	for _, item := range []map[string]any{
		{"name": "carne picada", "quantity": 5, "unit": "kg"},
		{"name": "Pan", "quantity": 1000, "unit": "g"},
		{"name": "huevo", "quantity": 12, "unit": "unidades"},
	} {
		require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/pantry", item, nil))
	}
	plan := map[string]any{
		"week_start": "2024-05-20",
		"meals":      []map[string]any{{"day": "Monday", "meal_type": "cena", "recipe_id": rec.ID, "servings": 2}},
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/meal-plans", plan, nil))

	var stored shopping.StoredList
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/shopping-lists/generate", nil, &stored))
	assert.Empty(t, stored.List.Items)
	assert.Equal(t, 0, stored.List.TotalItems)
	assert.Empty(t, stored.List.PorCategoria)

	families, err := e.collectors.Registry.Gather()
	require.NoError(t, err)
	var generated float64
	for _, mf := range families {
		if mf.GetName() == "shopping_lists_generated_total" {
			generated = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, generated)
}
