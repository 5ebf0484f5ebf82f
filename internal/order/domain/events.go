package domain

import "time"

const (
	AggregateType           = "order"
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderPlaced struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      Status    `json:"status"`
	TotalCents  int64     `json:"total_cents"`
	ItemCount   int       `json:"item_count"`
	CouponCode  string    `json:"coupon_code,omitempty"`
	PlacedAt    time.Time `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID        string         `json:"order_id"`
	OrderNumber    string         `json:"order_number"`
	UserID         string         `json:"user_id"`
	From           Status         `json:"from"`
	To             Status         `json:"to"`
	PaymentStatus  *PaymentStatus `json:"payment_status,omitempty"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	TrackingURL    string         `json:"tracking_url,omitempty"`
	ChangedBy      string         `json:"changed_by"`
	ChangedAt      time.Time      `json:"changed_at"`
}

func PlacedEvent(o Order) OrderPlaced {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return OrderPlaced{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalCents:  o.TotalCents,
		ItemCount:   n,
		CouponCode:  o.CouponCode,
		PlacedAt:    o.CreatedAt,
	}
}

func StatusChangedEvent(o Order, ch StatusChange, actorID string, at time.Time) OrderStatusChanged {
	ev := OrderStatusChanged{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		UserID:        o.UserID,
		From:          ch.From,
		To:            ch.To,
		PaymentStatus: ch.PaymentStatus,
		ChangedBy:     actorID,
		ChangedAt:     at,
	}
	if ch.Tracking != nil {
		ev.TrackingNumber = ch.Tracking.Number
		ev.TrackingURL = ch.Tracking.URL
	}
	return ev
}
