package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Stock is the number of units available.
type Product struct {
	ID          int64           `json:"product_id"`
	SellerID    int64           `json:"seller_id"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}
