package prices

import (
	"context"
	"fmt"
	"strings"

	"kecarajocomer/internal/shopping"
)

// LineEstimate is the cheapest known quote for one list item.
type LineEstimate struct {
	ItemID  string  `json:"item_id"`
	Nombre  string  `json:"nombre"`
	Product string  `json:"product"`
	Store   string  `json:"store"`
	Price   float64 `json:"price"`
	Unit    string  `json:"unit"`
}

// Estimate is the expected cost of a shopping list.
type Estimate struct {
	Total    float64        `json:"total"`
	Lines    []LineEstimate `json:"lines"`
	Unpriced []string       `json:"unpriced"`
}

// quoteSource is the part of Repository the estimator reads from.
type quoteSource interface {
	Products(ctx context.Context) ([]string, error)
	Latest(ctx context.Context, product string) ([]Observation, error)
}

// EstimateList prices each item with the cheapest latest quote of the
// known product whose name matches it. Prices are per observation unit and
// are not scaled by item quantity. Items without a match are listed in
// Unpriced.
func EstimateList(ctx context.Context, repo quoteSource, items []shopping.Item) (Estimate, error) {
	est := Estimate{Lines: []LineEstimate{}, Unpriced: []string{}}

	products, err := repo.Products(ctx)
	if err != nil {
		return est, err
	}

	for _, item := range items {
		product, ok := matchProduct(products, item.Nombre)
		if !ok {
			est.Unpriced = append(est.Unpriced, item.Nombre)
			continue
		}
		latest, err := repo.Latest(ctx, product)
		if err != nil {
			return est, fmt.Errorf("failed to load quotes for %s: %w", product, err)
		}
		quotes := CompareStores(latest)
		if len(quotes) == 0 {
			est.Unpriced = append(est.Unpriced, item.Nombre)
			continue
		}

		best := quotes[0]
		est.Lines = append(est.Lines, LineEstimate{
			ItemID:  item.ID,
			Nombre:  item.Nombre,
			Product: product,
			Store:   best.Store,
			Price:   best.Price,
			Unit:    best.Unit,
		})
		est.Total += best.Price
	}
	return est, nil
}

// matchProduct prefers a case-insensitive exact name over a fuzzy match.
func matchProduct(products []string, name string) (string, bool) {
	for _, p := range products {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	for _, p := range products {
		if shopping.SameIngredient(p, name) {
			return p, true
		}
	}
	return "", false
}
