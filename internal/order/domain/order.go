package domain

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

// PaymentCOD is the only supported method; there is no payment gateway.
const PaymentCOD PaymentMethod = "cod"

type Address struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Validate reports the first missing required field.
func (a Address) Validate(prefix string) error {
	required := []struct{ field, value string }{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"address_line1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: prefix + "." + r.field, Reason: "required"}
		}
	}
	return nil
}

// Item is frozen at placement; later catalog edits never reach it. CartLineID
// is the cart line the item was read from and is not persisted.
type Item struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"order_id"`
	ProductID      *string `json:"product_id,omitempty"`
	VariantID      *string `json:"variant_id,omitempty"`
	ProductName    string  `json:"product_name"`
	VariantName    string  `json:"variant_name,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	TotalCents     int64   `json:"total_cents"`
	CartLineID     string  `json:"-"`
}

func NewItem(productID, variantID *string, name, variantName string, qty int, unitPriceCents int64) Item {
	return Item{
		ProductID:      productID,
		VariantID:      variantID,
		ProductName:    name,
		VariantName:    variantName,
		Quantity:       qty,
		UnitPriceCents: unitPriceCents,
		TotalCents:     unitPriceCents * int64(qty),
	}
}

type Order struct {
	ID              string        `json:"id"`
	Number          string        `json:"order_number"`
	UserID          string        `json:"user_id"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	SubtotalCents   int64         `json:"subtotal_cents"`
	DiscountCents   int64         `json:"discount_cents"`
	ShippingCents   int64         `json:"shipping_cents"`
	TotalCents      int64         `json:"total_cents"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	ShippingAddress Address       `json:"shipping_address"`
	BillingAddress  *Address      `json:"billing_address,omitempty"`
	TrackingNumber  string        `json:"tracking_number,omitempty"`
	TrackingURL     string        `json:"tracking_url,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Items           []Item        `json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Draft struct {
	UserID          string
	Items           []Item
	PaymentMethod   PaymentMethod
	ShippingAddress Address
	BillingAddress  *Address
	CouponCode      string
	DiscountCents   int64
	Notes           string
}

func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return ErrEmptyCart
	}
	return ValidateCheckout(d.PaymentMethod, d.ShippingAddress, d.BillingAddress)
}

// ValidateCheckout checks the buyer-supplied checkout fields.
func ValidateCheckout(method PaymentMethod, shipping Address, billing *Address) error {
	if method != PaymentCOD {
		return &ValidationError{Field: "payment_method", Reason: "only cash on delivery is supported"}
	}
	if err := shipping.Validate("shipping_address"); err != nil {
		return err
	}
	if billing != nil {
		if err := billing.Validate("billing_address"); err != nil {
			return err
		}
	}
	return nil
}

// NewOrder prices d under policy. Id and number are assigned by the caller.
func NewOrder(d Draft, policy ShippingPolicy, now time.Time) Order {
	var subtotal int64
	for _, it := range d.Items {
		subtotal += it.TotalCents
	}
	t := policy.Totals(subtotal, d.DiscountCents)

	return Order{
		UserID:          d.UserID,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   d.PaymentMethod,
		SubtotalCents:   t.SubtotalCents,
		DiscountCents:   t.DiscountCents,
		ShippingCents:   t.ShippingCents,
		TotalCents:      t.TotalCents,
		CouponCode:      d.CouponCode,
		ShippingAddress: d.ShippingAddress,
		BillingAddress:  d.BillingAddress,
		Notes:           strings.TrimSpace(d.Notes),
		Items:           append([]Item(nil), d.Items...),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AssignIDs sets the order id on the order and its items.
func (o *Order) AssignIDs(id string, itemID func() string) {
	o.ID = id
	for i := range o.Items {
		o.Items[i].ID = itemID()
		o.Items[i].OrderID = id
	}
}
