package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrPersistence             = errors.New("order could not be saved")
	ErrDuplicateOrderNumber    = errors.New("duplicate order number")
	ErrIllegalStatusTransition = errors.New("illegal status transition")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrCartChanged             = errors.New("cart changed during checkout")
	ErrPlacementInFlight       = errors.New("another checkout is already in progress")
	ErrUnknownAction           = errors.New("unknown order action")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
