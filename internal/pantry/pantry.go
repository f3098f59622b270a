package pantry

import (
	"slices"
	"time"

	"kecarajocomer/internal/shopping"
)

// Item is an ingredient a user currently has at home.
type Item struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the item is past its expiration at now.
func (i Item) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// AsStock converts pantry rows into the snapshot the shopping list
// generator subtracts from demand.
func AsStock(items []Item) []shopping.PantryItem {
	stock := make([]shopping.PantryItem, 0, len(items))
	for _, it := range items {
		stock = append(stock, shopping.PantryItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			Unit:      it.Unit,
			ExpiresAt: it.ExpiresAt,
		})
	}
	return stock
}

func sortByExpiry(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return a.ExpiresAt.Compare(*b.ExpiresAt)
	})
}
