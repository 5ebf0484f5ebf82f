package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func percent(v string) *Coupon {
	return &Coupon{Code: "SAVE", Type: DiscountPercentage, Value: decimal.RequireFromString(v), Active: true}
}

func fixed(v string) *Coupon {
	return &Coupon{Code: "FLAT", Type: DiscountFixed, Value: decimal.RequireFromString(v), Active: true}
}

func TestEvaluate_PercentageNoCap(t *testing.T) {
	res, err := Evaluate(percent("10"), " save10 ", 60000, now)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "SAVE10", res.Code)
	assert.Equal(t, int64(6000), res.DiscountCents)
}

func TestEvaluate_PercentageCapped(t *testing.T) {
	c := percent("20")
	c.MaxDiscountCents = ptr(int64(5000))

	res, err := Evaluate(c, "SAVE", 100000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.DiscountCents)

	res, err = Evaluate(c, "SAVE", 10000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), res.DiscountCents)
}

func TestEvaluate_PercentageRoundsToCent(t *testing.T) {
	res, err := Evaluate(percent("15"), "SAVE", 999, now)
	require.NoError(t, err)
	assert.Equal(t, int64(150), res.DiscountCents) // 149.85
}

func TestEvaluate_FixedNeverExceedsSubtotal(t *testing.T) {
	for _, sub := range []int64{0, 1, 2500, 9999, 10000, 10001, 500000} {
		res, err := Evaluate(fixed("100"), "FLAT", sub, now)
		require.NoError(t, err)
		assert.Equal(t, min(int64(10000), sub), res.DiscountCents, "subtotal %d", sub)
	}
}

func TestEvaluate_PercentageNeverExceedsSubtotal(t *testing.T) {
	res, err := Evaluate(percent("150"), "SAVE", 4000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), res.DiscountCents)
}

func TestEvaluate_Failures(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		coupon *Coupon
		sub    int64
		want   error
	}{
		{"missing", nil, 1000, ErrNotFound},
		{"inactive", &Coupon{Type: DiscountFixed, Value: decimal.NewFromInt(5)}, 1000, ErrNotFound},
		{"not yet active", func() *Coupon { c := fixed("5"); c.StartsAt = &future; return c }(), 1000, ErrNotYetActive},
		{"expired", func() *Coupon { c := fixed("5"); c.ExpiresAt = &past; return c }(), 1000, ErrExpired},
		{"below minimum", func() *Coupon { c := fixed("5"); c.MinOrderCents = ptr(int64(2000)); return c }(), 1999, ErrBelowMinimum},
		{"usage limit", func() *Coupon { c := fixed("5"); c.UsageLimit = ptr(3); c.UsedCount = 3; return c }(), 1000, ErrUsageLimitReached},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Evaluate(tc.coupon, "x", tc.sub, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, res.Valid)
			assert.Zero(t, res.DiscountCents)

			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, "X", cerr.Code)
		})
	}
}

func TestEvaluate_CheckOrder(t *testing.T) {
	past := now.Add(-time.Hour)
	c := fixed("5")
	c.ExpiresAt = &past
	c.MinOrderCents = ptr(int64(99999))
	c.UsageLimit = ptr(0)

	_, err := Evaluate(c, "x", 1, now)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestEvaluate_BoundariesAreInclusive(t *testing.T) {
	c := fixed("5")
	c.StartsAt = &now
	c.ExpiresAt = &now
	c.MinOrderCents = ptr(int64(1000))

	res, err := Evaluate(c, "x", 1000, now)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestEvaluate_Pure(t *testing.T) {
	c := percent("10")
	c.UsageLimit = ptr(10)
	c.UsedCount = 2

	first, err := Evaluate(c, "SAVE", 12345, now)
	require.NoError(t, err)
	second, err := Evaluate(c, "SAVE", 12345, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, c.UsedCount)
}

func TestError_IsMatchesKindOnly(t *testing.T) {
	err := error(&Error{Kind: KindExpired, Code: "WINTER"})
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "coupon WINTER: expired", err.Error())
}
