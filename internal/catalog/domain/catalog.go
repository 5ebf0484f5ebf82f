package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidFilter   = errors.New("invalid product filter")
)

const FeaturedLimit = 8

type Category struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	ParentID     *string `json:"parent_id,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

type Variant struct {
	ID            string            `json:"id"`
	ProductID     string            `json:"product_id"`
	Name          string            `json:"name"`
	SKU           string            `json:"sku,omitempty"`
	PriceCents    *int64            `json:"price_cents,omitempty"`
	StockQuantity int               `json:"stock_quantity"`
	Attributes    map[string]any    `json:"attributes,omitempty"`
}

// Price is the variant's own price when set, the product's otherwise.
func (v Variant) Price(productPriceCents int64) int64 {
	if v.PriceCents != nil {
		return *v.PriceCents
	}
	return productPriceCents
}

type Product struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Description         string    `json:"description,omitempty"`
	ShortDescription    string    `json:"short_description,omitempty"`
	PriceCents          int64     `json:"price_cents"`
	CompareAtPriceCents *int64    `json:"compare_at_price_cents,omitempty"`
	SKU                 string    `json:"sku,omitempty"`
	StockQuantity       int       `json:"stock_quantity"`
	LowStockThreshold   int       `json:"low_stock_threshold"`
	Category            *Category `json:"category,omitempty"`
	Brand               string    `json:"brand,omitempty"`
	ImageURL            string    `json:"image_url,omitempty"`
	Featured            bool      `json:"is_featured"`
	Variants            []Variant `json:"variants,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

func (p Product) LowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.LowStockThreshold
}

// DiscountPercent is the whole-percent markdown from the compare-at price,
// zero when there is none.
func (p Product) DiscountPercent() int {
	if p.CompareAtPriceCents == nil || *p.CompareAtPriceCents <= p.PriceCents || *p.CompareAtPriceCents == 0 {
		return 0
	}
	was := *p.CompareAtPriceCents
	return int(((was-p.PriceCents)*100 + was/2) / was)
}

type Filter struct {
	CategorySlug  string
	Brand         string
	MinPriceCents *int64
	MaxPriceCents *int64
	FeaturedOnly  bool
	Search        string
	Limit         int
}

func (f Filter) Validate() error {
	if f.MinPriceCents != nil && *f.MinPriceCents < 0 {
		return errors.Join(ErrInvalidFilter, errors.New("min price must not be negative"))
	}
	if f.MaxPriceCents != nil && *f.MaxPriceCents < 0 {
		return errors.Join(ErrInvalidFilter, errors.New("max price must not be negative"))
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return errors.Join(ErrInvalidFilter, errors.New("min price exceeds max price"))
	}
	if f.Limit < 0 {
		return errors.Join(ErrInvalidFilter, errors.New("limit must not be negative"))
	}
	return nil
}

// Query is a validated filter with the category slug resolved to an id.
type Query struct {
	CategoryID    *string
	Brand         string
	MinPriceCents *int64
	MaxPriceCents *int64
	FeaturedOnly  bool
	Search        string
	Limit         int
}

func (f Filter) Query(categoryID *string) Query {
	return Query{
		CategoryID:    categoryID,
		Brand:         strings.TrimSpace(f.Brand),
		MinPriceCents: f.MinPriceCents,
		MaxPriceCents: f.MaxPriceCents,
		FeaturedOnly:  f.FeaturedOnly,
		Search:        strings.TrimSpace(f.Search),
		Limit:         f.Limit,
	}
}
