package http

import (
	"time"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/money"
)

type itemView struct {
	ID          string       `json:"id"`
	ProductID   *string      `json:"product_id,omitempty"`
	VariantID   *string      `json:"variant_id,omitempty"`
	ProductName string       `json:"product_name"`
	VariantName string       `json:"variant_name,omitempty"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
	Total       money.Amount `json:"total"`
}

type orderView struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"order_number"`
	Status          domain.Status        `json:"status"`
	PaymentStatus   domain.PaymentStatus `json:"payment_status"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	Subtotal        money.Amount         `json:"subtotal"`
	Discount        money.Amount         `json:"discount"`
	Shipping        money.Amount         `json:"shipping"`
	Total           money.Amount         `json:"total"`
	CouponCode      string               `json:"coupon_code,omitempty"`
	ShippingAddress domain.Address       `json:"shipping_address"`
	BillingAddress  *domain.Address      `json:"billing_address,omitempty"`
	TrackingNumber  string               `json:"tracking_number,omitempty"`
	TrackingURL     string               `json:"tracking_url,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Items           []itemView           `json:"items"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toView(o domain.Order) orderView {
	v := orderView{
		ID:              o.ID,
		OrderNumber:     o.Number,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        money.Amount(o.SubtotalCents),
		Discount:        money.Amount(o.DiscountCents),
		Shipping:        money.Amount(o.ShippingCents),
		Total:           money.Amount(o.TotalCents),
		CouponCode:      o.CouponCode,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		TrackingNumber:  o.TrackingNumber,
		TrackingURL:     o.TrackingURL,
		Notes:           o.Notes,
		Items:           make([]itemView, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, itemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
			UnitPrice:   money.Amount(it.UnitPriceCents),
			Total:       money.Amount(it.TotalCents),
		})
	}
	return v
}

func toViews(orders []domain.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toView(o))
	}
	return out
}
