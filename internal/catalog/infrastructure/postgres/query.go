package postgres

import (
	"fmt"
	"strings"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

const productColumns = `p.id, p.name, p.slug, coalesce(p.description, ''), coalesce(p.short_description, ''),
	p.price_cents, p.compare_at_price_cents, coalesce(p.sku, ''), p.stock_quantity, p.low_stock_threshold,
	coalesce(p.brand, ''), coalesce(p.image_url, ''), p.is_featured, p.created_at,
	c.id, coalesce(c.name, ''), coalesce(c.slug, '')`

// productQuery renders q as a parameterised SELECT over active products.
func productQuery(q domain.Query) (string, []any) {
	var (
		conds = []string{"p.is_active"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.CategoryID != nil {
		conds = append(conds, "p.category_id = "+arg(*q.CategoryID))
	}
	if q.Brand != "" {
		conds = append(conds, "p.brand = "+arg(q.Brand))
	}
	if q.MinPriceCents != nil {
		conds = append(conds, "p.price_cents >= "+arg(*q.MinPriceCents))
	}
	if q.MaxPriceCents != nil {
		conds = append(conds, "p.price_cents <= "+arg(*q.MaxPriceCents))
	}
	if q.FeaturedOnly {
		conds = append(conds, "p.is_featured")
	}
	if q.Search != "" {
		p := arg("%" + escapeLike(q.Search) + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %[1]s OR p.description ILIKE %[1]s OR p.brand ILIKE %[1]s)", p))
	}

	sql := `SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY p.created_at DESC, p.id`
	if q.Limit > 0 {
		sql += " LIMIT " + arg(q.Limit)
	}
	return sql, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
