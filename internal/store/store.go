package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write precondition no longer holds at
	// commit time (duplicate invoice number, concurrent decrement race).
	ErrConflict = errors.New("conflict")
)

// InsufficientStockError reports the first order line that cannot be covered
// by available stock. The whole batch is rejected when it occurs.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// Product is a sellable item. Stock is only ever decremented by settlements
// and never goes below zero.
type Product struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	AvailableStock int             `json:"availableStock"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Customer is identified by email and created on first purchase.
type Customer struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderLine is a caller-supplied request line.
type OrderLine struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// PricedLine snapshots the product at pricing time together with the
// computed amounts. LineTotal is always Subtotal + Tax, each rounded to two
// places independently.
type PricedLine struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Qty       int             `json:"qty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Purchase aggregates the priced lines of one settlement. ChangeAmount may be
// negative: underpayment is recorded as-is and left to callers to police.
type Purchase struct {
	ID            int64           `json:"-"`
	InvoiceNo     string          `json:"invoiceNo"`
	CustomerID    int64           `json:"customerId"`
	TotalSubtotal decimal.Decimal `json:"totalSubtotal"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	ChangeAmount  decimal.Decimal `json:"changeAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
	Lines         []PricedLine    `json:"lines"`
}

// Denomination is one face value held in the till together with the number
// of physical notes or coins available.
type Denomination struct {
	Value int64 `json:"value"`
	Count int   `json:"count"`
}

// DenominationUse records how many notes of one value a payout consumed.
type DenominationUse struct {
	Value int64 `json:"value"`
	Count int   `json:"count"`
}

// Store is the persistence contract for the billing core.
//
// CreatePurchase is the stock/purchase failure domain: it checks and
// decrements stock for every line and inserts the purchase with its lines as
// one atomic unit. DecrementTill is the later, separate till failure domain
// with the same all-or-nothing discipline.
type Store interface {
	GetOrCreateCustomer(ctx context.Context, email string) (Customer, error)

	ListProducts(ctx context.Context) ([]Product, error)
	GetProductBySKU(ctx context.Context, sku string) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)

	CreatePurchase(ctx context.Context, p Purchase) (Purchase, error)
	GetPurchaseByInvoice(ctx context.Context, invoiceNo string) (Purchase, error)

	ListDenominations(ctx context.Context) ([]Denomination, error)
	TopUpDenomination(ctx context.Context, value int64, count int) (Denomination, error)
	DecrementTill(ctx context.Context, used []DenominationUse) error
}
