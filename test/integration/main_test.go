//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/migrations"
)

var (
	env  *Env
	pool *pgxpool.Pool
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	env, err = Setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "start containers:", err)
		os.Exit(1)
	}
	if err := migrations.Up(env.PGURL); err != nil {
		env.Teardown(ctx)
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	pool, err = pgxpool.New(ctx, env.PGURL)
	if err != nil {
		env.Teardown(ctx)
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	env.Teardown(ctx)
	os.Exit(code)
}

type productSeed struct {
	ID    string
	Slug  string
	Price int64
	Stock int
}

func seedProduct(t *testing.T, name string, price int64, stock int, active bool) productSeed {
	t.Helper()
	p := productSeed{ID: uuid.NewString(), Slug: fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]), Price: price, Stock: stock}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products (id, name, slug, price_cents, stock_quantity, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)`, p.ID, name, p.Slug, price, stock, active)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedCoupon(t *testing.T, code string, limit int) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO coupons (id, code, discount_type, discount_value, usage_limit)
		VALUES ($1,$2,'fixed',5,$3)`, uuid.NewString(), code, limit)
	if err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
}

func stockOf(t *testing.T, productID string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		`SELECT stock_quantity FROM products WHERE id=$1`, productID).Scan(&n); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return n
}
