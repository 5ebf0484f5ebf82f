package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("secret")
	tok, err := v.Issue(User{ID: "u-1", Email: "a@b.c", Role: RoleSeller}, time.Hour)
	require.NoError(t, err)

	u, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u-1", Email: "a@b.c", Role: RoleSeller}, u)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("secret")

	other, err := NewVerifier("other").Issue(User{ID: "u-1", Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Issue(User{ID: "u-1", Role: RoleCustomer}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := v.Issue(User{Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, err := v.Issue(User{ID: "u-1", Role: "root"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(badRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_DefaultsToCustomer(t *testing.T) {
	v := NewVerifier("secret")
	tok, err := v.Issue(User{ID: "u-2"}, time.Hour)
	require.NoError(t, err)

	u, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, u.Role)
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(u.ID))
	})
}

func TestAuthenticate(t *testing.T) {
	v := NewVerifier("secret")
	h := Authenticate(logging.Discard(), v)(echoUser())
	tok, err := v.Issue(User{ID: "u-7", Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "u-7", rec.Body.String())
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(RoleSeller, RoleAdmin)(echoUser())

	cases := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{"anonymous", context.Background(), http.StatusUnauthorized},
		{"customer", WithUser(context.Background(), User{ID: "c", Role: RoleCustomer}), http.StatusForbidden},
		{"seller", WithUser(context.Background(), User{ID: "s", Role: RoleSeller}), http.StatusOK},
		{"admin", WithUser(context.Background(), User{ID: "a", Role: RoleAdmin}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tc.ctx))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), User{ID: "u", Role: RoleCustomer})))
	assert.Equal(t, "u", rec.Body.String())
}
