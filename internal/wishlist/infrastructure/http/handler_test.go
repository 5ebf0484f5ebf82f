package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/wishlist/domain"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWishlist struct {
	items   []domain.Item
	err     error
	added   []string
	removed []string
	saved   bool
}

func (m *mockWishlist) List(context.Context, string) ([]domain.Item, error) { return m.items, m.err }

func (m *mockWishlist) Add(_ context.Context, _, productID string) error {
	m.added = append(m.added, productID)
	return m.err
}

func (m *mockWishlist) Remove(_ context.Context, _, productID string) error {
	m.removed = append(m.removed, productID)
	return m.err
}

func (m *mockWishlist) Toggle(context.Context, string, string) (bool, error) { return m.saved, m.err }

func do(h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req = req.WithContext(identity.WithUser(req.Context(), identity.User{ID: "u1", Role: identity.RoleCustomer}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	was := int64(1500)
	svc := &mockWishlist{items: []domain.Item{{
		ID: "w1", UserID: "u1", ProductID: "p1", CreatedAt: time.Date(2026, 4, 20, 8, 30, 0, 0, time.UTC),
		Product: domain.Product{ID: "p1", Name: "Mug", Slug: "mug", PriceCents: 1250, CompareAtPriceCents: &was, InStock: true},
	}}}
	rec := do(NewHandler(logging.Discard(), svc).Routes(), http.MethodGet, "/", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"product_id":"p1","name":"Mug","slug":"mug","price":12.50,"compare_at_price":15.00,
		"in_stock":true,"added_at":"2026-04-20T08:30:00Z"}]`, rec.Body.String())
}

func TestRequiresUser(t *testing.T) {
	rec := do(NewHandler(logging.Discard(), &mockWishlist{}).Routes(), http.MethodGet, "/", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddRemoveToggle(t *testing.T) {
	svc := &mockWishlist{saved: true}
	h := NewHandler(logging.Discard(), svc).Routes()

	rec := do(h, http.MethodPost, "/", `{"product_id":"p1"}`, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"p1"}, svc.added)

	rec = do(h, http.MethodDelete, "/p2", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"p2"}, svc.removed)

	rec = do(h, http.MethodPost, "/p3/toggle", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"in_wishlist":true}`, rec.Body.String())
}

func TestErrors(t *testing.T) {
	rec := do(NewHandler(logging.Discard(), &mockWishlist{err: domain.ErrProductNotFound}).Routes(),
		http.MethodPost, "/", `{"product_id":"p1"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(NewHandler(logging.Discard(), &mockWishlist{err: errors.New("boom")}).Routes(), http.MethodGet, "/", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(NewHandler(logging.Discard(), &mockWishlist{}).Routes(), http.MethodPost, "/", `{"product":"p1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
