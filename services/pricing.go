package services

import "github.com/shopspring/decimal"

// Pricing holds the flat shipping charge and the tax rate applied to every
// order.
type Pricing struct {
	ShippingCost decimal.Decimal
	TaxRate      decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		ShippingCost: decimal.RequireFromString("10.00"),
		TaxRate:      decimal.RequireFromString("0.05"),
	}
}

type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Totals prices a subtotal. Nothing is rounded here; an empty cart ships
// for free.
func (p Pricing) Totals(subtotal decimal.Decimal) Totals {
	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = p.ShippingCost
	}
	tax := subtotal.Mul(p.TaxRate)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}

// Rounded rounds every amount to cents, for display and persistence.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:     t.Subtotal.Round(2),
		ShippingCost: t.ShippingCost.Round(2),
		Tax:          t.Tax.Round(2),
		Total:        t.Total.Round(2),
	}
}
