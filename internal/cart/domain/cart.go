package domain

import "errors"

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrCartChanged     = errors.New("cart changed since it was read")
)

// Line prices are resolved from the catalog on every read; nothing is frozen
// until an order is placed.
type Line struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	ProductID         string  `json:"product_id"`
	VariantID         *string `json:"variant_id,omitempty"`
	Quantity          int     `json:"quantity"`
	ProductName       string  `json:"product_name"`
	ProductSlug       string  `json:"product_slug"`
	ImageURL          string  `json:"image_url,omitempty"`
	VariantName       string  `json:"variant_name,omitempty"`
	ProductPriceCents int64   `json:"product_price_cents"`
	VariantPriceCents *int64  `json:"variant_price_cents,omitempty"`
	StockQuantity     int     `json:"stock_quantity"`
}

// UnitPriceCents is the variant price when the variant has one.
func (l Line) UnitPriceCents() int64 {
	if l.VariantPriceCents != nil {
		return *l.VariantPriceCents
	}
	return l.ProductPriceCents
}

func (l Line) TotalCents() int64 {
	return l.UnitPriceCents() * int64(l.Quantity)
}

type Cart struct {
	UserID string `json:"user_id"`
	Lines  []Line `json:"lines"`
}

func (c Cart) SubtotalCents() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.TotalCents()
	}
	return sum
}

func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
