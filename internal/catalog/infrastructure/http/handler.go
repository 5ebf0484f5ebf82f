package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/money"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	ListProducts(ctx context.Context, f domain.Filter) ([]domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, slug string) (domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Brands(ctx context.Context) ([]string, error)
}

type Handler struct {
	log     *slog.Logger
	service CatalogService
}

func NewHandler(log *slog.Logger, service CatalogService) *Handler {
	return &Handler{log: log, service: service}
}

// Routes serves /products, /categories and /brands. All of it is public.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/products", h.listProducts)
	r.Get("/products/featured", h.featuredProducts)
	r.Get("/products/{slug}", h.getProduct)
	r.Get("/categories", h.categories)
	r.Get("/brands", h.brands)
	return r
}

type variantView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	SKU        string         `json:"sku,omitempty"`
	Price      money.Amount   `json:"price"`
	InStock    bool           `json:"in_stock"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type productView struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description,omitempty"`
	ShortDescription string           `json:"short_description,omitempty"`
	Price            money.Amount     `json:"price"`
	CompareAtPrice   *money.Amount    `json:"compare_at_price,omitempty"`
	DiscountPercent  int              `json:"discount_percent,omitempty"`
	Brand            string           `json:"brand,omitempty"`
	ImageURL         string           `json:"image_url,omitempty"`
	Category         *domain.Category `json:"category,omitempty"`
	Featured         bool             `json:"is_featured"`
	InStock          bool             `json:"in_stock"`
	LowStock         bool             `json:"low_stock"`
	Variants         []variantView    `json:"variants,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func toView(p domain.Product) productView {
	v := productView{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            money.Amount(p.PriceCents),
		DiscountPercent:  p.DiscountPercent(),
		Brand:            p.Brand,
		ImageURL:         p.ImageURL,
		Category:         p.Category,
		Featured:         p.Featured,
		InStock:          p.InStock(),
		LowStock:         p.LowStock(),
		CreatedAt:        p.CreatedAt,
	}
	if p.CompareAtPriceCents != nil {
		was := money.Amount(*p.CompareAtPriceCents)
		v.CompareAtPrice = &was
	}
	for _, vr := range p.Variants {
		v.Variants = append(v.Variants, variantView{
			ID:         vr.ID,
			Name:       vr.Name,
			SKU:        vr.SKU,
			Price:      money.Amount(vr.Price(p.PriceCents)),
			InStock:    vr.StockQuantity > 0,
			Attributes: vr.Attributes,
		})
	}
	return v
}

func toViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toView(p))
	}
	return out
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	products, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toViews(products))
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.FeaturedProducts(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toViews(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toView(p))
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	httpx.RespondJSON(w, http.StatusOK, cats)
}

func (h *Handler) brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if brands == nil {
		brands = []string{}
	}
	httpx.RespondJSON(w, http.StatusOK, brands)
}

// parseFilter reads category, brand, min_price, max_price, featured, search
// and limit from the query string. Prices are decimal amounts.
func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	f := domain.Filter{
		CategorySlug: q.Get("category"),
		Brand:        q.Get("brand"),
		Search:       q.Get("search"),
	}

	for key, dst := range map[string]**int64{"min_price": &f.MinPriceCents, "max_price": &f.MaxPriceCents} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		cents, err := money.Parse(raw)
		if err != nil {
			return domain.Filter{}, errors.New(key + " must be a decimal amount")
		}
		*dst = &cents
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.Filter{}, errors.New("featured must be true or false")
		}
		f.FeaturedOnly = featured
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Filter{}, errors.New("limit must be an integer")
		}
		f.Limit = limit
	}
	return f, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		httpx.RespondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidFilter):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_filter", err.Error())
	default:
		h.log.Error("catalog request failed", "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
