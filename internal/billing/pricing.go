package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/money"
	"github.com/noah-isme/backend-kasir/internal/store"
)

var (
	// ErrInvalidQuantity is returned for non-positive order line quantities.
	ErrInvalidQuantity = errors.New("billing: quantity must be positive")
	// ErrInvalidAmount is returned for a non-positive tendered amount or a
	// malformed till entry.
	ErrInvalidAmount = errors.New("billing: invalid amount")
)

// ProductNotFoundError names the SKU that failed to resolve.
type ProductNotFoundError struct {
	SKU string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("billing: product %s not found", e.SKU)
}

var oneHundred = decimal.NewFromInt(100)

// PriceLine turns a product snapshot and a quantity into a priced line.
// Subtotal and tax are rounded to two places independently; the line total is
// the sum of the two already-rounded values, never a rounding of the raw sum.
func PriceLine(p store.Product, qty int) (store.PricedLine, error) {
	if qty <= 0 {
		return store.PricedLine{}, ErrInvalidQuantity
	}
	subtotal := money.Round2(p.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	tax := money.Round2(subtotal.Mul(p.TaxRate).Div(oneHundred))
	return store.PricedLine{
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		TaxRate:   p.TaxRate,
		Qty:       qty,
		Subtotal:  subtotal,
		Tax:       tax,
		LineTotal: subtotal.Add(tax),
	}, nil
}
