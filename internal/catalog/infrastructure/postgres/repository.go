package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) ListProducts(ctx context.Context, q domain.Query) ([]domain.Product, error) {
	sql, args := productQuery(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1 AND p.is_active`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, name, coalesce(sku, ''), price_cents, stock_quantity, attributes
		FROM product_variants
		WHERE product_id = $1 AND is_active
		ORDER BY created_at, id`, p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.PriceCents, &v.StockQuantity, &v.Attributes); err != nil {
			return domain.Product{}, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

func (r *Repository) CategoryID(ctx context.Context, slug string) (string, bool, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM categories WHERE slug = $1 AND is_active`, slug).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (r *Repository) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, coalesce(description, ''), coalesce(image_url, ''), parent_id, display_order
		FROM categories
		WHERE is_active
		ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.ParentID, &c.DisplayOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Brands is sorted and free of duplicates and blanks.
func (r *Repository) Brands(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT brand FROM products
		WHERE is_active AND brand IS NOT NULL AND brand <> ''
		ORDER BY brand`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p                domain.Product
		catID            *string
		catName, catSlug string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
		&p.PriceCents, &p.CompareAtPriceCents, &p.SKU, &p.StockQuantity, &p.LowStockThreshold,
		&p.Brand, &p.ImageURL, &p.Featured, &p.CreatedAt,
		&catID, &catName, &catSlug)
	if err != nil {
		return domain.Product{}, err
	}
	if catID != nil {
		p.Category = &domain.Category{ID: *catID, Name: catName, Slug: catSlug}
	}
	return p, nil
}
