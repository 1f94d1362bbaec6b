package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a customer's shopping cart. Items keep the order in which they were added.
type Cart struct {
	ID         int64      `json:"cart_id"`
	CustomerID int64      `json:"customer_id"`
	CreatedAt  time.Time  `json:"created_at"`
	Items      []CartItem `json:"items"`
}

// CartItem references a product; price is read from the product, not copied.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is the line price times quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPrice sums every line subtotal.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TotalItems is the number of distinct lines in the cart.
func (c Cart) TotalItems() int {
	return len(c.Items)
}
