package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/wishlist/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) List(ctx context.Context, userID string) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.user_id, w.product_id, w.created_at,
		       p.name, p.slug, p.price_cents, p.compare_at_price_cents,
		       coalesce(p.brand, ''), coalesce(p.image_url, ''), p.stock_quantity > 0
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.CreatedAt,
			&it.Product.Name, &it.Product.Slug, &it.Product.PriceCents, &it.Product.CompareAtPriceCents,
			&it.Product.Brand, &it.Product.ImageURL, &it.Product.InStock); err != nil {
			return nil, err
		}
		it.Product.ID = it.ProductID
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) Add(ctx context.Context, userID, productID string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO wishlists (id, user_id, product_id)
		SELECT $1, $2, p.id FROM products p WHERE p.id = $3 AND p.is_active
		ON CONFLICT ON CONSTRAINT wishlists_user_product_key DO NOTHING`,
		uuid.NewString(), userID, productID)
	if err != nil {
		return false, fmt.Errorf("insert wishlist item: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}

	saved, err := r.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if !saved {
		return false, domain.ErrProductNotFound
	}
	return false, nil
}

func (r *Repository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM wishlists WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repository) Contains(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wishlists WHERE user_id=$1 AND product_id=$2)`, userID, productID).Scan(&ok)
	return ok, err
}
