package domain

import (
	"fmt"

	"github.com/dmehra2102/storefront/internal/identity"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	switch st {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return st, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sellerMoves are the only transitions a seller may apply. Cancelling an
// accepted order and refunds are left to admins.
var sellerMoves = map[[2]Status]bool{
	{StatusPending, StatusConfirmed}:    true,
	{StatusPending, StatusCancelled}:    true,
	{StatusConfirmed, StatusProcessing}: true,
	{StatusProcessing, StatusShipped}:   true,
	{StatusShipped, StatusDelivered}:    true,
}

// Authorize checks that role may move an order from one status to another.
// Buyers may only cancel a pending order.
func Authorize(role identity.Role, from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalStatusTransition, from, to)
	}

	allowed := false
	switch role {
	case identity.RoleAdmin:
		allowed = true
	case identity.RoleSeller:
		allowed = sellerMoves[[2]Status{from, to}]
	case identity.RoleCustomer:
		allowed = from == StatusPending && to == StatusCancelled
	}
	if !allowed {
		return fmt.Errorf("%w: %s may not move %s -> %s", ErrIllegalStatusTransition, role, from, to)
	}
	return nil
}

// Action is a seller-facing verb for a target status.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionProcess Action = "process"
	ActionShip    Action = "ship"
	ActionDeliver Action = "deliver"
	ActionRefund  Action = "refund"
)

var actionTargets = map[Action]Status{
	ActionAccept:  StatusConfirmed,
	ActionReject:  StatusCancelled,
	ActionProcess: StatusProcessing,
	ActionShip:    StatusShipped,
	ActionDeliver: StatusDelivered,
	ActionRefund:  StatusRefunded,
}

func (a Action) Target() (Status, error) {
	st, ok := actionTargets[a]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
	return st, nil
}

type Tracking struct {
	Number string
	URL    string
}

// StatusChange is applied only while the order is still in From.
type StatusChange struct {
	OrderID       string
	From          Status
	To            Status
	PaymentStatus *PaymentStatus
	Tracking      *Tracking
}

// NewStatusChange derives the payment side effects of moving o to to.
func NewStatusChange(o Order, to Status, tracking *Tracking) StatusChange {
	ch := StatusChange{OrderID: o.ID, From: o.Status, To: to}
	switch {
	case to == StatusDelivered && o.PaymentMethod == PaymentCOD:
		ps := PaymentCompleted
		ch.PaymentStatus = &ps
	case to == StatusRefunded:
		ps := PaymentRefunded
		ch.PaymentStatus = &ps
	}
	if to == StatusShipped && tracking != nil && (tracking.Number != "" || tracking.URL != "") {
		ch.Tracking = tracking
	}
	return ch
}
