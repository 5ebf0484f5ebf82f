package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	cartpg "github.com/dmehra2102/storefront/internal/cart/infrastructure/postgres"
	couponpg "github.com/dmehra2102/storefront/internal/coupon/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const orderColumns = `id, order_number, user_id, status, payment_status, payment_method,
	subtotal_cents, discount_cents, shipping_cents, total_cents, coalesce(coupon_code, ''),
	shipping_address, billing_address, coalesce(tracking_number, ''), coalesce(tracking_url, ''),
	coalesce(notes, ''), created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// CreateWithOutbox writes the order, its items and the outbox record, takes
// stock, redeems the coupon and empties the buyer's cart in one transaction.
func (r *Repository) CreateWithOutbox(ctx context.Context, o domain.Order, rec outbox.Record) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, payment_status, payment_method,
		                    subtotal_cents, discount_cents, shipping_cents, total_cents, coupon_code,
		                    shipping_address, billing_address, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.Number, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.SubtotalCents, o.DiscountCents, o.ShippingCents, o.TotalCents, nullable(o.CouponCode),
		o.ShippingAddress, o.BillingAddress, nullable(o.Notes), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "orders_order_number_key" {
			return domain.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, variant_name,
		                                      quantity, unit_price_cents, total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, o.ID, it.ProductID, it.VariantID, it.ProductName, nullable(it.VariantName),
			it.Quantity, it.UnitPriceCents, it.TotalCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err := takeStock(ctx, tx, o.Items); err != nil {
		return err
	}
	if o.CouponCode != "" {
		if err := couponpg.Redeem(ctx, tx, o.CouponCode); err != nil {
			return err
		}
	}
	if err := cartpg.ClearTx(ctx, tx, o.UserID, cartLines(o.Items)); err != nil {
		if errors.Is(err, cartdomain.ErrCartChanged) {
			return domain.ErrCartChanged
		}
		return fmt.Errorf("clear cart: %w", err)
	}
	if err := outbox.Append(ctx, tx, rec); err != nil {
		return fmt.Errorf("append outbox: %w", err)
	}
	return tx.Commit(ctx)
}

func cartLines(items []domain.Item) map[string]int {
	lines := make(map[string]int, len(items))
	for _, it := range items {
		if it.CartLineID != "" {
			lines[it.CartLineID] = it.Quantity
		}
	}
	return lines
}

// takeStock decrements the variant's stock when the line has one, the
// product's otherwise. A line that cannot be covered fails the order.
func takeStock(ctx context.Context, tx pgx.Tx, items []domain.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		if it.VariantID != nil {
			batch.Queue(`UPDATE product_variants SET stock_quantity = stock_quantity - $2
				WHERE id=$1 AND stock_quantity >= $2`, *it.VariantID, it.Quantity)
			continue
		}
		batch.Queue(`UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now()
			WHERE id=$1 AND stock_quantity >= $2`, it.ProductID, it.Quantity)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for _, it := range items {
		ct, err := br.Exec()
		if err != nil {
			return fmt.Errorf("take stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, it.ProductName)
		}
	}
	return br.Close()
}

// UpdateStatusWithOutbox applies ch only while the stored status still equals
// ch.From.
func (r *Repository) UpdateStatusWithOutbox(ctx context.Context, ch domain.StatusChange, rec outbox.Record) (domain.Order, error) {
	if uuid.Validate(ch.OrderID) != nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var payment *string
	if ch.PaymentStatus != nil {
		s := string(*ch.PaymentStatus)
		payment = &s
	}
	var trackingNumber, trackingURL *string
	if ch.Tracking != nil {
		trackingNumber, trackingURL = nullable(ch.Tracking.Number), nullable(ch.Tracking.URL)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$3,
		                  payment_status=coalesce($4, payment_status),
		                  tracking_number=coalesce($5, tracking_number),
		                  tracking_url=coalesce($6, tracking_url),
		                  updated_at=now()
		WHERE id=$1 AND status=$2`,
		ch.OrderID, ch.From, ch.To, payment, trackingNumber, trackingURL)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, ch.OrderID).Scan(&exists); err != nil {
			return domain.Order{}, err
		}
		if !exists {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, domain.ErrIllegalStatusTransition
	}

	if err := outbox.Append(ctx, tx, rec); err != nil {
		return domain.Order{}, fmt.Errorf("append outbox: %w", err)
	}
	o, err := get(ctx, tx, ch.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	if uuid.Validate(id) != nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return get(ctx, r.pool, id)
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
}

// List returns every order, newest first, optionally only those in status.
func (r *Repository) List(ctx context.Context, status *domain.Status) ([]domain.Order, error) {
	if status != nil {
		return list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC, id`, *status)
	}
	return list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
}

func get(ctx context.Context, q querier, id string) (domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	items, err := loadItems(ctx, q, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func list(ctx context.Context, q querier, sql string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.SubtotalCents, &o.DiscountCents, &o.ShippingCents, &o.TotalCents, &o.CouponCode,
		&o.ShippingAddress, &o.BillingAddress, &o.TrackingNumber, &o.TrackingURL,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func loadItems(ctx context.Context, q querier, orderIDs []string) (map[string][]domain.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, coalesce(variant_name, ''),
		       quantity, unit_price_cents, total_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Item, len(orderIDs))
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.ProductName, &it.VariantName,
			&it.Quantity, &it.UnitPriceCents, &it.TotalCents); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
