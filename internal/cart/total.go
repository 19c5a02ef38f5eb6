package cart

import (
	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/internal/shop"
)

// LineTotal is price * quantity / weight for one line, unrounded.
// Lines without a joined product cost nothing.
func LineTotal(item shop.CartItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	p := item.Product
	return p.Price.Mul(item.Quantity).Div(p.EffectiveWeight())
}

// ComputeTotal sums LineTotal over items and rounds to cents once.
func ComputeTotal(items []shop.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if !it.Quantity.IsPositive() {
			continue
		}
		sum = sum.Add(LineTotal(it))
	}
	return sum.Round(2)
}
