package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	log    *slog.Logger
	repo   CatalogRepository
	tracer trace.Tracer
}

func NewService(log *slog.Logger, repo CatalogRepository) *Service {
	return &Service{log: log, repo: repo, tracer: otel.Tracer("catalog")}
}

// ListProducts returns active products, newest first. An unknown category
// slug drops the category condition instead of matching nothing.
func (s *Service) ListProducts(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "ListProducts", trace.WithAttributes(
		attribute.String("filter.category", f.CategorySlug),
		attribute.String("filter.search", f.Search),
	))
	defer span.End()

	var categoryID *string
	if slug := strings.TrimSpace(f.CategorySlug); slug != "" {
		id, ok, err := s.repo.CategoryID(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		if ok {
			categoryID = &id
		} else {
			s.log.Debug("unknown category ignored", "slug", slug)
		}
	}

	products, err := s.repo.ListProducts(ctx, f.Query(categoryID))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Service) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return s.ListProducts(ctx, domain.Filter{FeaturedOnly: true, Limit: domain.FeaturedLimit})
}

func (s *Service) GetProduct(ctx context.Context, slug string) (domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return s.repo.ProductBySlug(ctx, slug)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Brands(ctx context.Context) ([]string, error) {
	return s.repo.Brands(ctx)
}
