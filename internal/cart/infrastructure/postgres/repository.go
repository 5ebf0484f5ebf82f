package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/google/uuid"
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

// Lines skips lines whose product or variant is no longer active, so they are
// neither shown nor priced into an order.
func (r *Repository) Lines(ctx context.Context, userID string) ([]domain.Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity,
		       p.name, p.slug, coalesce(p.image_url, ''), p.price_cents, p.stock_quantity,
		       coalesce(v.name, ''), v.price_cents
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.user_id = $1 AND p.is_active AND (ci.variant_id IS NULL OR v.is_active)
		ORDER BY ci.created_at, ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.VariantID, &l.Quantity,
			&l.ProductName, &l.ProductSlug, &l.ImageURL, &l.ProductPriceCents, &l.StockQuantity,
			&l.VariantName, &l.VariantPriceCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddLine only accepts active products, and a variant only when it belongs to
// that product.
func (r *Repository) AddLine(ctx context.Context, userID, productID string, variantID *string, qty int) error {
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity)
		SELECT $1, $2, p.id, v.id, $5
		FROM products p
		LEFT JOIN product_variants v ON v.id = $4::uuid AND v.product_id = p.id AND v.is_active
		WHERE p.id = $3 AND p.is_active AND ($4::uuid IS NULL OR v.id IS NOT NULL)
		ON CONFLICT ON CONSTRAINT cart_items_line_key
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()`,
		uuid.NewString(), userID, productID, variantID, qty)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *Repository) SetQuantity(ctx context.Context, userID, lineID string, qty int) error {
	ct, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity=$3, updated_at=now() WHERE id=$1 AND user_id=$2`, lineID, userID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *Repository) RemoveLine(ctx context.Context, userID, lineID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, lineID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

// ClearTx deletes the given lines (line id to quantity) inside the caller's
// transaction. Lines added since the read stay in the cart; a line that was
// removed or requantified fails with domain.ErrCartChanged.
func ClearTx(ctx context.Context, tx pgx.Tx, userID string, lines map[string]int) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]string, 0, len(lines))
	qtys := make([]int32, 0, len(lines))
	for id, qty := range lines {
		ids = append(ids, id)
		qtys = append(qtys, int32(qty))
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM cart_items ci
		USING unnest($2::uuid[], $3::int[]) AS s(id, quantity)
		WHERE ci.user_id = $1 AND ci.id = s.id AND ci.quantity = s.quantity`, userID, ids, qtys)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != int64(len(lines)) {
		return domain.ErrCartChanged
	}
	return nil
}
