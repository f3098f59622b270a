package shopping

import (
	"errors"

	"github.com/google/uuid"
)

// ErrItemNotFound is returned when a list has no item with the given ID.
var ErrItemNotFound = errors.New("shopping list item not found")

// AddManualItem appends an item the user added by hand. Manual items are
// not merged with plan items even when the names match.
func AddManualItem(list *GeneratedList, name string, quantity float64, unit string) Item {
	qty, u := NormalizeUnit(quantity, unit)
	item := Item{
		ID:               uuid.NewString(),
		Nombre:           name,
		Cantidad:         qty,
		Unidad:           u,
		Categoria:        ClassifyCategory(name),
		DePlanSemanal:    false,
		RecetasQueLoUsan: []string{},
	}
	list.Items = append(list.Items, item)
	list.refresh()
	return item
}

// SetPurchased marks an item as bought or pending.
func SetPurchased(list *GeneratedList, itemID string, purchased bool) error {
	for i := range list.Items {
		if list.Items[i].ID == itemID {
			list.Items[i].Comprado = purchased
			list.refresh()
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem drops an item from the list.
func RemoveItem(list *GeneratedList, itemID string) error {
	for i := range list.Items {
		if list.Items[i].ID == itemID {
			list.Items = append(list.Items[:i], list.Items[i+1:]...)
			list.refresh()
			return nil
		}
	}
	return ErrItemNotFound
}

// PendingItems returns the items not yet bought.
func PendingItems(list GeneratedList) []Item {
	pending := make([]Item, 0, len(list.Items))
	for _, item := range list.Items {
		if !item.Comprado {
			pending = append(pending, item)
		}
	}
	return pending
}

func (l *GeneratedList) refresh() {
	l.TotalItems = len(l.Items)
	l.PorCategoria = GroupByCategory(l.Items)
}
