package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmehra2102/storefront/pkg/httpx"
)

// Authenticate attaches the bearer token's user to the request context.
// Requests without a token pass through anonymously; bad tokens are rejected.
func Authenticate(log *slog.Logger, v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", "bearer token expected")
				return
			}
			u, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				log.Debug("token rejected", "err", err)
				httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r.Context())
			if !ok {
				httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated.Error())
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, http.StatusForbidden, "forbidden", "insufficient role")
		})
	}
}
