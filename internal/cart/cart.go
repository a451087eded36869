package cart

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/quickbites/orderflow/internal/catalog"
)

// Size is the product size selector.
type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// ParseSize validates a size selector.
func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case SizeS, SizeM, SizeL, SizeXL:
		return Size(s), nil
	}
	return "", fmt.Errorf("unknown size %q", s)
}

// Item is one product+size line in a cart. Quantity is always positive;
// an item whose quantity would drop to zero is removed instead.
type Item struct {
	ID        string          `json:"id"`
	Product   catalog.Product `json:"product"`
	ProductID string          `json:"product_id"`
	Size      Size            `json:"size"`
	Quantity  int             `json:"quantity"`
}

// Cart holds the items a user has selected, newest first. Each cart has a
// single logical writer; the mutex only guards against overlapping HTTP
// requests for the same user.
type Cart struct {
	mu    sync.Mutex
	items []Item
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem puts one unit of product+size into the cart. Re-adding an
// existing product+size pair increments its quantity instead.
func (c *Cart) AddItem(product catalog.Product, size Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		if item.ProductID == product.ID && item.Size == size {
			c.updateQty(item.ID, 1)
			return
		}
	}

	item := Item{
		ID:        uuid.NewString(),
		Product:   product,
		ProductID: product.ID,
		Size:      size,
		Quantity:  1,
	}
	c.items = append([]Item{item}, c.items...)
}

// UpdateQty adjusts an item's quantity by the signed amount, removing the
// item when the result is not positive. Unknown ids are a no-op.
func (c *Cart) UpdateQty(itemID string, amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateQty(itemID, amount)
}

func (c *Cart) updateQty(itemID string, amount int) {
	updated := c.items[:0]
	for _, item := range c.items {
		if item.ID == itemID {
			item.Quantity += amount
		}
		if item.Quantity > 0 {
			updated = append(updated, item)
		}
	}
	c.items = updated
}

// Items returns a copy of the cart contents in display order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// Len reports the number of distinct items.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total is the sum of price times quantity over all items. It is
// recomputed on every read so it can never diverge from the item state.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, item := range c.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// Clear empties the cart. Called by the checkout orchestrator on
// confirmed success only.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
