// Package pricing computes order totals from catalog prices.
//
// Prices submitted by clients never reach this package; the order workflow
// looks every product up and passes the catalog price in.
package pricing

import "github.com/shopspring/decimal"

const taxPlaces = 2

type Engine struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

func NewEngine(taxRate, freeShippingThreshold, shippingFee decimal.Decimal) *Engine {
	return &Engine{
		TaxRate:               taxRate,
		FreeShippingThreshold: freeShippingThreshold,
		ShippingFee:           shippingFee,
	}
}

// Line is one priced cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Quote struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Quote prices lines. Shipping is free only when the items total is strictly
// above the threshold.
func (e *Engine) Quote(lines []Line) Quote {
	items := decimal.Zero
	for _, l := range lines {
		items = items.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := items.Mul(e.TaxRate).Round(taxPlaces)

	shipping := e.ShippingFee
	if items.GreaterThan(e.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Quote{
		ItemsPrice:    items,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    items.Add(tax).Add(shipping),
	}
}
