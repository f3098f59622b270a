package recipe

import (
	"fmt"
	"strings"
)

// Ingredient is one line of a recipe with a structured amount.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Recipe represents a recipe in the catalog.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	PrepTime    string       `json:"prep_time"`
	Servings    int          `json:"servings"`
	Tags        []string     `json:"tags"`
	Source      string       `json:"source,omitempty"`
	UpdatedAt   string       `json:"updated_at"`
}

// Validate checks the fields every stored recipe needs.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("recipe has no title")
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("recipe %q has no ingredients", r.Title)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("recipe %q: ingredient %d has no name", r.Title, i)
		}
	}
	return nil
}

// IngredientNames returns the ingredient names in recipe order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
