package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/money"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// TillLocker serializes till payouts across instances. lock.Locker satisfies
// this; tests pass nil to run unguarded.
type TillLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const tillLockKey = "kasir:till:payout"

// Service orchestrates one settlement: price the lines, decrement stock,
// persist the purchase, compute and pay out change, notify.
type Service struct {
	Store    store.Store
	Events   *events.Bus
	TillLock TillLocker
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// SettleRequest carries the already-validated inbound contract.
type SettleRequest struct {
	CustomerEmail string
	Lines         []store.OrderLine
	PaidAmount    decimal.Decimal
}

// SettleResult pairs the persisted purchase with its transient change
// breakdown. TillApplied reports whether the till was actually decremented.
type SettleResult struct {
	Purchase    store.Purchase  `json:"purchase"`
	Change      ChangeBreakdown `json:"change"`
	TillApplied bool            `json:"tillApplied"`
}

// Settle executes the full settlement. Stock decrement and purchase creation
// share one transactional failure domain inside Store.CreatePurchase; the
// till payout is a separate, later domain whose failure never rolls the
// purchase back.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (SettleResult, error) {
	if s == nil || s.Store == nil {
		return SettleResult{}, errors.New("billing: service not configured")
	}
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		return SettleResult{}, errors.New("billing: customer email is required")
	}
	if req.PaidAmount.Sign() <= 0 {
		return SettleResult{}, ErrInvalidAmount
	}
	if len(req.Lines) == 0 {
		return SettleResult{}, ErrInvalidQuantity
	}

	customer, err := s.Store.GetOrCreateCustomer(ctx, email)
	if err != nil {
		return SettleResult{}, err
	}

	lines := make([]store.PricedLine, 0, len(req.Lines))
	totalSubtotal := money.Zero()
	totalTax := money.Zero()
	for _, line := range req.Lines {
		product, err := s.Store.GetProductBySKU(ctx, line.SKU)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return SettleResult{}, &ProductNotFoundError{SKU: line.SKU}
			}
			return SettleResult{}, err
		}
		priced, err := PriceLine(product, line.Qty)
		if err != nil {
			return SettleResult{}, err
		}
		lines = append(lines, priced)
		totalSubtotal = totalSubtotal.Add(priced.Subtotal)
		totalTax = totalTax.Add(priced.Tax)
	}
	totalAmount := totalSubtotal.Add(totalTax)

	purchase := store.Purchase{
		InvoiceNo:     newInvoiceNo(),
		CustomerID:    customer.ID,
		TotalSubtotal: totalSubtotal,
		TotalTax:      totalTax,
		TotalAmount:   totalAmount,
		PaidAmount:    req.PaidAmount,
		ChangeAmount:  req.PaidAmount.Sub(totalAmount),
		Lines:         lines,
	}

	created, err := s.Store.CreatePurchase(ctx, purchase)
	if errors.Is(err, store.ErrConflict) {
		// invoice token collision, regenerate and retry once
		purchase.InvoiceNo = newInvoiceNo()
		created, err = s.Store.CreatePurchase(ctx, purchase)
	}
	if err != nil {
		obs.ObserveSettlement("error")
		var stockErr *store.InsufficientStockError
		if errors.As(err, &stockErr) {
			obs.ObserveSettlement("insufficient_stock")
		}
		return SettleResult{}, err
	}

	result := SettleResult{Purchase: created, Change: ChangeBreakdown{Shortfall: decimal.Zero}}
	if created.ChangeAmount.Sign() > 0 {
		result.Change, result.TillApplied, err = s.payOut(ctx, created.ChangeAmount)
		if err != nil {
			// purchase is committed; report the payout plan as-is
			s.Logger.Warn().Err(err).Str("invoice_no", created.InvoiceNo).Msg("till payout failed")
		}
	}
	if result.Change.Insufficient {
		obs.ObserveTillShortfall()
	}

	obs.ObserveSettlement("ok")
	s.emit(ctx, created, email, result.Change)
	return result, nil
}

// payOut computes a breakdown against the current till and applies the
// decrements when the change is fully representable. A conflicting
// concurrent payout is retried once against the refreshed till.
func (s *Service) payOut(ctx context.Context, amount decimal.Decimal) (ChangeBreakdown, bool, error) {
	var (
		breakdown ChangeBreakdown
		applied   bool
	)
	run := func(ctx context.Context) error {
		for attempt := 0; attempt < 2; attempt++ {
			till, err := s.Store.ListDenominations(ctx)
			if err != nil {
				return err
			}
			breakdown, err = MakeChange(amount, till)
			if err != nil {
				return err
			}
			if breakdown.Insufficient || len(breakdown.Used) == 0 {
				return nil
			}
			err = s.Store.DecrementTill(ctx, breakdown.Used)
			if err == nil {
				applied = true
				return nil
			}
			if !errors.Is(err, store.ErrConflict) {
				return err
			}
			obs.ObserveTillConflict()
		}
		return store.ErrConflict
	}
	var err error
	if s.TillLock != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 10 * time.Second
		}
		err = s.TillLock.WithLock(ctx, tillLockKey, ttl, run)
	} else {
		err = run(ctx)
	}
	return breakdown, applied, err
}

// emit publishes the settled event; notification is fire-and-forget and its
// failure never surfaces to the settlement caller.
func (s *Service) emit(ctx context.Context, p store.Purchase, email string, change ChangeBreakdown) {
	if s.Events == nil {
		return
	}
	items := make([]map[string]any, 0, len(p.Lines))
	for _, line := range p.Lines {
		items = append(items, map[string]any{
			"name":      line.Name,
			"qty":       line.Qty,
			"lineTotal": line.LineTotal.StringFixed(2),
		})
	}
	payload := map[string]any{
		"invoiceNo":   p.InvoiceNo,
		"email":       email,
		"totalAmount": p.TotalAmount.StringFixed(2),
		"items":       items,
	}
	if _, err := s.Events.Emit(ctx, events.TopicPurchaseSettled, p.InvoiceNo, payload); err != nil {
		s.Logger.Warn().Err(err).Str("invoice_no", p.InvoiceNo).Msg("emit purchase.settled")
	}
	if change.Insufficient {
		if _, err := s.Events.Emit(ctx, events.TopicTillShortfall, p.InvoiceNo, map[string]any{
			"invoiceNo": p.InvoiceNo,
			"shortfall": change.Shortfall.StringFixed(2),
		}); err != nil {
			s.Logger.Warn().Err(err).Str("invoice_no", p.InvoiceNo).Msg("emit till.shortfall")
		}
	}
}

// Lookup returns a previously settled purchase by invoice number.
func (s *Service) Lookup(ctx context.Context, invoiceNo string) (store.Purchase, error) {
	return s.Store.GetPurchaseByInvoice(ctx, strings.ToUpper(strings.TrimSpace(invoiceNo)))
}

// newInvoiceNo generates the short human-readable invoice token. Uniqueness
// is enforced at persist time; a collision is retried with a fresh token.
func newInvoiceNo() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
