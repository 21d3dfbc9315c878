// Package memory provides an in-memory Store used by tests and by dev mode
// when no DATABASE_URL is configured. All operations take a single mutex, so
// the check-then-act batches behave exactly like the transactional postgres
// implementation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/store"
)

type Store struct {
	mu             sync.Mutex
	products       map[string]store.Product
	customers      map[string]store.Customer
	purchases      map[string]store.Purchase
	denominations  map[int64]int
	domainEvents   []events.Event
	nextCustomerID int64
	nextPurchaseID int64
}

func New() *Store {
	return &Store{
		products:      map[string]store.Product{},
		customers:     map[string]store.Customer{},
		purchases:     map[string]store.Purchase{},
		denominations: map[int64]int{},
	}
}

func (s *Store) GetOrCreateCustomer(_ context.Context, email string) (store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.customers[email]; ok {
		return c, nil
	}
	s.nextCustomerID++
	c := store.Customer{
		ID:        s.nextCustomerID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	s.customers[email] = c
	return c, nil
}

func (s *Store) ListProducts(_ context.Context) ([]store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[sku]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) CreateProduct(_ context.Context, p store.Product) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.SKU]; ok {
		return store.Product{}, store.ErrConflict
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.products[p.SKU] = p
	return p, nil
}

// CreatePurchase validates stock for every line before touching anything,
// then applies all decrements and records the purchase in one critical
// section. A duplicate invoice number is reported as a conflict so the
// caller can regenerate and retry.
func (s *Store) CreatePurchase(_ context.Context, p store.Purchase) (store.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[p.InvoiceNo]; ok {
		return store.Purchase{}, store.ErrConflict
	}
	for _, line := range p.Lines {
		prod, ok := s.products[line.SKU]
		if !ok {
			return store.Purchase{}, store.ErrNotFound
		}
		if prod.AvailableStock < line.Qty {
			return store.Purchase{}, &store.InsufficientStockError{
				SKU:       line.SKU,
				Requested: line.Qty,
				Available: prod.AvailableStock,
			}
		}
	}
	for _, line := range p.Lines {
		prod := s.products[line.SKU]
		prod.AvailableStock -= line.Qty
		s.products[line.SKU] = prod
	}

	s.nextPurchaseID++
	p.ID = s.nextPurchaseID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.purchases[p.InvoiceNo] = clonePurchase(p)
	return p, nil
}

func (s *Store) GetPurchaseByInvoice(_ context.Context, invoiceNo string) (store.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[invoiceNo]
	if !ok {
		return store.Purchase{}, store.ErrNotFound
	}
	return clonePurchase(p), nil
}

func (s *Store) ListDenominations(_ context.Context) ([]store.Denomination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Denomination, 0, len(s.denominations))
	for value, count := range s.denominations {
		out = append(out, store.Denomination{Value: value, Count: count})
	}
	return out, nil
}

func (s *Store) TopUpDenomination(_ context.Context, value int64, count int) (store.Denomination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denominations[value] += count
	return store.Denomination{Value: value, Count: s.denominations[value]}, nil
}

// DecrementTill applies a payout batch all-or-nothing. A count that no
// longer covers the requested notes means the till moved underneath the
// caller, reported as a conflict.
func (s *Store) DecrementTill(_ context.Context, used []store.DenominationUse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range used {
		count, ok := s.denominations[u.Value]
		if !ok {
			return store.ErrNotFound
		}
		if count < u.Count {
			return store.ErrConflict
		}
	}
	for _, u := range used {
		s.denominations[u.Value] -= u.Count
	}
	return nil
}

func (s *Store) InsertDomainEvent(_ context.Context, ev events.Event) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domainEvents = append(s.domainEvents, ev)
	return ev, nil
}

// DomainEvents returns a snapshot of recorded events, oldest first.
func (s *Store) DomainEvents() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, len(s.domainEvents))
	copy(out, s.domainEvents)
	return out
}

func clonePurchase(p store.Purchase) store.Purchase {
	cloned := p
	cloned.Lines = make([]store.PricedLine, len(p.Lines))
	copy(cloned.Lines, p.Lines)
	return cloned
}
