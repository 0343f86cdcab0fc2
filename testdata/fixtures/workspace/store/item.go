package store

// Item is one stocked product.
type Item struct {
	SKU      string
	Quantity int
}

// Store persists items.
type Store interface {
	Get(sku string) (*Item, error)
	Put(item *Item) error
}

func restock(item *Item, n int) {
	item.Quantity += n
}
