package domain

type ShippingPolicy struct {
	FreeThresholdCents int64
	FlatFeeCents       int64
}

// Fee is charged unless the subtotal is strictly above the threshold.
func (p ShippingPolicy) Fee(subtotalCents int64) int64 {
	if subtotalCents > p.FreeThresholdCents {
		return 0
	}
	return p.FlatFeeCents
}

type Totals struct {
	SubtotalCents int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
}

// Totals clamps the discount to [0, subtotal] before summing, so the total is
// never negative.
func (p ShippingPolicy) Totals(subtotalCents, discountCents int64) Totals {
	discountCents = max(0, min(discountCents, subtotalCents))
	shipping := p.Fee(subtotalCents)
	return Totals{
		SubtotalCents: subtotalCents,
		ShippingCents: shipping,
		DiscountCents: discountCents,
		TotalCents:    subtotalCents + shipping - discountCents,
	}
}
