package shopping

import "time"

// Category is the store section an item is bought in.
type Category string

const (
	CategoryVerduleria Category = "verduleria"
	CategoryCarniceria Category = "carniceria"
	CategoryAlmacen    Category = "almacen"
	CategoryPanaderia  Category = "panaderia"
	CategoryLacteos    Category = "lacteos"
	CategoryLimpieza   Category = "limpieza"
	CategoryOtros      Category = "otros"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryVerduleria,
	CategoryCarniceria,
	CategoryLacteos,
	CategoryPanaderia,
	CategoryAlmacen,
	CategoryLimpieza,
	CategoryOtros,
}

// MealPlanIngredient is one use of an ingredient by one planned meal.
type MealPlanIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// PantryItem is the stock snapshot the generator subtracts from demand.
type PantryItem struct {
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Item is a single line of a shopping list.
type Item struct {
	ID               string   `json:"id"`
	Nombre           string   `json:"nombre"`
	Cantidad         float64  `json:"cantidad"`
	Unidad           string   `json:"unidad"`
	Categoria        Category `json:"categoria"`
	DePlanSemanal    bool     `json:"dePlanSemanal"`
	RecetasQueLoUsan []string `json:"recetasQueLoUsan"`
	Comprado         bool     `json:"comprado"`
}

// DateRange is the span of days a list was generated for.
type DateRange struct {
	Desde time.Time `json:"desde"`
	Hasta time.Time `json:"hasta"`
}

// GeneratedList is the envelope returned by the generator.
type GeneratedList struct {
	Items           []Item              `json:"items"`
	FechaGeneracion time.Time           `json:"fechaGeneracion"`
	RangoFechas     DateRange           `json:"rangoFechas"`
	TotalItems      int                 `json:"totalItems"`
	PorCategoria    map[Category][]Item `json:"porCategoria"`
}

// StoredList is a generated list as persisted for a user and week.
type StoredList struct {
	ID        string
	UserID    string
	WeekStart time.Time
	List      GeneratedList
	CreatedAt time.Time
	UpdatedAt time.Time
}
