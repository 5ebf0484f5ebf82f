package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
)

type CouponRepository interface {
	// FindActive returns domain.ErrNotFound when no active coupon has code.
	FindActive(ctx context.Context, code string) (domain.Coupon, error)
}
