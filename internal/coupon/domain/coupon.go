package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is read-only during a checkout. Value is in major units: percentage
// points for percentage coupons, currency for fixed ones.
type Coupon struct {
	ID               string
	Code             string
	Description      string
	Type             DiscountType
	Value            decimal.Decimal
	MinOrderCents    *int64
	MaxDiscountCents *int64
	UsageLimit       *int
	UsedCount        int
	Active           bool
	StartsAt         *time.Time
	ExpiresAt        *time.Time
}

type Result struct {
	Code          string
	Valid         bool
	DiscountCents int64
}

var hundred = decimal.NewFromInt(100)

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate checks c against subtotalCents at now and computes the discount.
// A nil coupon means no active coupon matched the code.
func Evaluate(c *Coupon, code string, subtotalCents int64, now time.Time) (Result, error) {
	res := Result{Code: Normalize(code)}

	switch {
	case c == nil || !c.Active:
		return res, &Error{Kind: KindNotFound, Code: res.Code}
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return res, &Error{Kind: KindNotYetActive, Code: res.Code}
	case c.ExpiresAt != nil && now.After(*c.ExpiresAt):
		return res, &Error{Kind: KindExpired, Code: res.Code}
	case c.MinOrderCents != nil && subtotalCents < *c.MinOrderCents:
		return res, &Error{Kind: KindBelowMinimum, Code: res.Code}
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return res, &Error{Kind: KindUsageLimitReached, Code: res.Code}
	}

	res.Valid = true
	res.DiscountCents = c.Discount(subtotalCents)
	return res, nil
}

// Discount never exceeds the subtotal.
func (c *Coupon) Discount(subtotalCents int64) int64 {
	if subtotalCents <= 0 || c.Value.IsNegative() {
		return 0
	}

	var d int64
	switch c.Type {
	case DiscountPercentage:
		d = decimal.NewFromInt(subtotalCents).Mul(c.Value).Div(hundred).Round(0).IntPart()
		if c.MaxDiscountCents != nil && d > *c.MaxDiscountCents {
			d = *c.MaxDiscountCents
		}
	case DiscountFixed:
		d = c.Value.Mul(hundred).Round(0).IntPart()
	}

	return max(0, min(d, subtotalCents))
}
