package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Evaluator struct {
	repo   CouponRepository
	now    func() time.Time
	tracer trace.Tracer
}

func NewEvaluator(repo CouponRepository, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{repo: repo, now: now, tracer: otel.Tracer("coupon")}
}

// Evaluate validates code against subtotalCents. An empty code is not an
// error; it yields an invalid zero-discount result. Business-rule failures come
// back as *domain.Error; anything else is a lookup failure.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotalCents int64) (domain.Result, error) {
	code = domain.Normalize(code)
	if code == "" {
		return domain.Result{}, nil
	}

	ctx, span := e.tracer.Start(ctx, "EvaluateCoupon", trace.WithAttributes(attribute.String("coupon.code", code)))
	defer span.End()

	c, err := e.repo.FindActive(ctx, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.Evaluate(nil, code, subtotalCents, e.now())
	case err != nil:
		span.RecordError(err)
		return domain.Result{Code: code}, fmt.Errorf("lookup coupon: %w", err)
	}

	return domain.Evaluate(&c, code, subtotalCents, e.now())
}
