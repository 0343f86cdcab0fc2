package store

import "fmt"

// Inventory adjusts stock levels.
type Inventory struct {
	store Store
}

// NewInventory wraps s.
func NewInventory(s Store) *Inventory {
	return &Inventory{store: s}
}

// Receive adds n units of sku.
func (inv *Inventory) Receive(sku string, n int) error {
	item, err := inv.store.Get(sku)
	if err != nil {
		return fmt.Errorf("receive %s: %w", sku, err)
	}
	restock(item, n)
	return inv.store.Put(item)
}

// Count reports the units on hand.
func (inv *Inventory) Count(sku string) (int, error) {
	item, err := inv.store.Get(sku)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", sku, err)
	}
	return item.Quantity, nil
}
