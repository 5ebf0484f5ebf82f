package domain

import "fmt"

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindNotYetActive      Kind = "not_yet_active"
	KindExpired           Kind = "expired"
	KindBelowMinimum      Kind = "below_minimum"
	KindUsageLimitReached Kind = "usage_limit_reached"
)

type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("coupon %s", e.Kind)
	}
	return fmt.Sprintf("coupon %s: %s", e.Code, e.Kind)
}

func (e *Error) Message() string {
	switch e.Kind {
	case KindNotFound:
		return "Invalid coupon code"
	case KindNotYetActive:
		return "This coupon is not yet active"
	case KindExpired:
		return "This coupon has expired"
	case KindBelowMinimum:
		return "Order total is below the minimum for this coupon"
	case KindUsageLimitReached:
		return "Coupon usage limit reached"
	}
	return e.Error()
}

// Is matches on Kind so errors.Is(err, ErrExpired) works for any code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrNotYetActive      = &Error{Kind: KindNotYetActive}
	ErrExpired           = &Error{Kind: KindExpired}
	ErrBelowMinimum      = &Error{Kind: KindBelowMinimum}
	ErrUsageLimitReached = &Error{Kind: KindUsageLimitReached}
)
