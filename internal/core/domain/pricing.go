package domain

import "github.com/shopspring/decimal"

// A Pricing holds the fees applied on top of the cart subtotal.
type Pricing struct {
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
}

type OrderSummary struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Summarize returns the display summary of the cart.
//
// An empty cart has a zero summary. Total never drops below zero.
func (p Pricing) Summarize(c Cart) OrderSummary {
	if c.TotalItems == 0 {
		return OrderSummary{}
	}
	total := c.TotalPrice.Add(p.DeliveryFee).Sub(p.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return OrderSummary{
		Subtotal:    c.TotalPrice,
		DeliveryFee: p.DeliveryFee,
		Discount:    p.Discount,
		Total:       total,
	}
}
