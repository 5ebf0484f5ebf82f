package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) FindActive(ctx context.Context, code string) (domain.Coupon, error) {
	var (
		c     domain.Coupon
		typ   string
		value string
		desc  *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, description, discount_type, discount_value::text,
		       min_order_amount_cents, max_discount_amount_cents, usage_limit, used_count,
		       is_active, starts_at, expires_at
		FROM coupons
		WHERE upper(code) = $1 AND is_active`, domain.Normalize(code)).
		Scan(&c.ID, &c.Code, &desc, &typ, &value,
			&c.MinOrderCents, &c.MaxDiscountCents, &c.UsageLimit, &c.UsedCount,
			&c.Active, &c.StartsAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Coupon{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Coupon{}, err
	}

	c.Value, err = decimal.NewFromString(value)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("coupon %s discount_value: %w", c.Code, err)
	}
	c.Type = domain.DiscountType(typ)
	if desc != nil {
		c.Description = *desc
	}
	return c, nil
}

// Redeem bumps used_count inside the caller's transaction. It fails with
// domain.ErrUsageLimitReached when the limit was reached concurrently.
func Redeem(ctx context.Context, tx pgx.Tx, code string) error {
	ct, err := tx.Exec(ctx, `
		UPDATE coupons SET used_count = used_count + 1
		WHERE upper(code) = $1 AND is_active
		  AND (usage_limit IS NULL OR used_count < usage_limit)`, domain.Normalize(code))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &domain.Error{Kind: domain.KindUsageLimitReached, Code: domain.Normalize(code)}
	}
	return nil
}
