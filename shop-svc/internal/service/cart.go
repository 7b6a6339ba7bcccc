package service

import "smartorder/shop-svc/internal/domain"

// Cart is the customer's unsent selection. It lives only for one visit and
// is never stored.
type Cart struct {
	quantities map[string]int
}

func NewCart() *Cart {
	return &Cart{quantities: map[string]int{}}
}

// CartFrom builds a cart from item id to quantity pairs.
func CartFrom(quantities map[string]int) *Cart {
	cart := NewCart()
	for itemID, quantity := range quantities {
		cart.SetQuantity(itemID, quantity)
	}
	return cart
}

// SetQuantity clamps negative quantities to zero. Zero removes the item.
func (c *Cart) SetQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		delete(c.quantities, itemID)
		return
	}
	c.quantities[itemID] = quantity
}

func (c *Cart) Add(itemID string, delta int) {
	c.SetQuantity(itemID, c.quantities[itemID]+delta)
}

func (c *Cart) Quantity(itemID string) int {
	return c.quantities[itemID]
}

// Count is the number of units across all items.
func (c *Cart) Count() int {
	total := 0
	for _, quantity := range c.quantities {
		total += quantity
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.quantities) == 0
}

// Total prices the cart against menu. Items missing from menu count as zero.
func (c *Cart) Total(menu domain.ShopMenu) float64 {
	var total float64
	for _, line := range c.lines(menu) {
		total += float64(line.Quantity) * line.Price
	}
	return total
}

// lines snapshots the cart in menu order.
func (c *Cart) lines(menu domain.ShopMenu) []domain.OrderItem {
	lines := make([]domain.OrderItem, 0, len(c.quantities))
	for _, item := range menu.Items {
		quantity := c.quantities[item.ID]
		if quantity <= 0 {
			continue
		}
		lines = append(lines, domain.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   quantity,
			Price:      item.Price,
		})
	}
	return lines
}
