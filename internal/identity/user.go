// Package identity adapts the external identity provider. Sign-in and sign-up
// happen elsewhere; this package only verifies the bearer tokens it issues and
// carries the resulting caller through request contexts.
package identity

import (
	"context"
	"errors"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID    string
	Email string
	Role  Role
}

var ErrUnauthenticated = errors.New("authentication required")

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// CurrentUser returns the caller attached by Authenticate, if any.
func CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok && u.ID != ""
}
