package domain

import (
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the catalog summary shown next to a saved item.
type Product struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Slug                string `json:"slug"`
	PriceCents          int64  `json:"price_cents"`
	CompareAtPriceCents *int64 `json:"compare_at_price_cents,omitempty"`
	Brand               string `json:"brand,omitempty"`
	ImageURL            string `json:"image_url,omitempty"`
	InStock             bool   `json:"in_stock"`
}

type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	Product   Product   `json:"product"`
}
