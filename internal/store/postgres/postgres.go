// Package postgres implements the billing Store on PostgreSQL via pgx.
//
// Both decrement paths (stock, till) lock the touched rows, re-check the
// precondition, and apply a conditional decrement inside one transaction, so
// two settlements racing on the same product or denomination cannot both
// pass their pre-check and drive a count negative.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping probes the database within the given timeout, for readiness checks.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Store) GetOrCreateCustomer(ctx context.Context, email string) (store.Customer, error) {
	var c store.Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, COALESCE(name, ''), created_at
	`, email).Scan(&c.ID, &c.Email, &c.Name, &c.CreatedAt)
	if err != nil {
		return store.Customer{}, fmt.Errorf("get or create customer: %w", err)
	}
	return c, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sku, name, unit_price::text, tax_rate::text, available_stock, created_at
		FROM products
		ORDER BY sku
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]store.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (store.Product, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT sku, name, unit_price::text, tax_rate::text, available_stock, created_at
		FROM products
		WHERE sku = $1
	`, sku)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Product{}, store.ErrNotFound
		}
		return store.Product{}, err
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p store.Product) (store.Product, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, unit_price, tax_rate, available_stock)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5)
		RETURNING created_at
	`, p.SKU, p.Name, p.UnitPrice.String(), p.TaxRate.String(), p.AvailableStock).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Product{}, store.ErrConflict
		}
		return store.Product{}, err
	}
	return p, nil
}

// CreatePurchase runs the whole stock/purchase failure domain in one
// transaction: lock the product rows, validate every line, decrement, insert
// the purchase and its lines. Any failure rolls the entire batch back.
func (s *Store) CreatePurchase(ctx context.Context, p store.Purchase) (store.Purchase, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.Purchase{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, line := range p.Lines {
		var available int
		err := tx.QueryRow(ctx, `
			SELECT available_stock FROM products WHERE sku = $1 FOR UPDATE
		`, line.SKU).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.Purchase{}, store.ErrNotFound
			}
			return store.Purchase{}, err
		}
		if available < line.Qty {
			return store.Purchase{}, &store.InsufficientStockError{
				SKU:       line.SKU,
				Requested: line.Qty,
				Available: available,
			}
		}
	}
	for _, line := range p.Lines {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET available_stock = available_stock - $2
			WHERE sku = $1 AND available_stock >= $2
		`, line.SKU, line.Qty)
		if err != nil {
			return store.Purchase{}, err
		}
		if tag.RowsAffected() == 0 {
			// pre-check held the lock, so this only fires on schema drift
			return store.Purchase{}, store.ErrConflict
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (invoice_no, customer_id, total_subtotal, total_tax, total_amount, paid_amount, change_amount)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric)
		RETURNING id, created_at
	`, p.InvoiceNo, p.CustomerID,
		p.TotalSubtotal.String(), p.TotalTax.String(), p.TotalAmount.String(),
		p.PaidAmount.String(), p.ChangeAmount.String(),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Purchase{}, store.ErrConflict
		}
		return store.Purchase{}, err
	}

	for _, line := range p.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO purchase_lines (purchase_id, sku, name, unit_price, tax_rate, qty, subtotal, tax, line_total)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7::numeric, $8::numeric, $9::numeric)
		`, p.ID, line.SKU, line.Name,
			line.UnitPrice.String(), line.TaxRate.String(), line.Qty,
			line.Subtotal.String(), line.Tax.String(), line.LineTotal.String())
		if err != nil {
			return store.Purchase{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return store.Purchase{}, err
	}
	return p, nil
}

func (s *Store) GetPurchaseByInvoice(ctx context.Context, invoiceNo string) (store.Purchase, error) {
	var (
		p                                  store.Purchase
		subtotal, tax, total, paid, change string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, invoice_no, customer_id, total_subtotal::text, total_tax::text,
		       total_amount::text, paid_amount::text, change_amount::text, created_at
		FROM purchases
		WHERE invoice_no = $1
	`, invoiceNo).Scan(&p.ID, &p.InvoiceNo, &p.CustomerID, &subtotal, &tax, &total, &paid, &change, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Purchase{}, store.ErrNotFound
		}
		return store.Purchase{}, err
	}
	if p.TotalSubtotal, err = decimal.NewFromString(subtotal); err != nil {
		return store.Purchase{}, err
	}
	if p.TotalTax, err = decimal.NewFromString(tax); err != nil {
		return store.Purchase{}, err
	}
	if p.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return store.Purchase{}, err
	}
	if p.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return store.Purchase{}, err
	}
	if p.ChangeAmount, err = decimal.NewFromString(change); err != nil {
		return store.Purchase{}, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sku, name, unit_price::text, tax_rate::text, qty, subtotal::text, tax::text, line_total::text
		FROM purchase_lines
		WHERE purchase_id = $1
		ORDER BY id
	`, p.ID)
	if err != nil {
		return store.Purchase{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			line                                      store.PricedLine
			unitPrice, rate, lineSub, lineTax, lineTT string
		)
		if err := rows.Scan(&line.SKU, &line.Name, &unitPrice, &rate, &line.Qty, &lineSub, &lineTax, &lineTT); err != nil {
			return store.Purchase{}, err
		}
		if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return store.Purchase{}, err
		}
		if line.TaxRate, err = decimal.NewFromString(rate); err != nil {
			return store.Purchase{}, err
		}
		if line.Subtotal, err = decimal.NewFromString(lineSub); err != nil {
			return store.Purchase{}, err
		}
		if line.Tax, err = decimal.NewFromString(lineTax); err != nil {
			return store.Purchase{}, err
		}
		if line.LineTotal, err = decimal.NewFromString(lineTT); err != nil {
			return store.Purchase{}, err
		}
		p.Lines = append(p.Lines, line)
	}
	return p, rows.Err()
}

func (s *Store) ListDenominations(ctx context.Context) ([]store.Denomination, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT value, count FROM denominations ORDER BY value DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	denominations := make([]store.Denomination, 0, 16)
	for rows.Next() {
		var d store.Denomination
		if err := rows.Scan(&d.Value, &d.Count); err != nil {
			return nil, err
		}
		denominations = append(denominations, d)
	}
	return denominations, rows.Err()
}

func (s *Store) TopUpDenomination(ctx context.Context, value int64, count int) (store.Denomination, error) {
	var d store.Denomination
	err := s.pool.QueryRow(ctx, `
		INSERT INTO denominations (value, count)
		VALUES ($1, $2)
		ON CONFLICT (value) DO UPDATE SET count = denominations.count + EXCLUDED.count
		RETURNING value, count
	`, value, count).Scan(&d.Value, &d.Count)
	if err != nil {
		return store.Denomination{}, err
	}
	return d, nil
}

// DecrementTill applies a payout batch with the same lock-check-decrement
// discipline as stock. A count that moved below the requested notes since
// the breakdown was computed surfaces as a conflict, leaving the till intact.
func (s *Store) DecrementTill(ctx context.Context, used []store.DenominationUse) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, u := range used {
		var count int
		err := tx.QueryRow(ctx, `
			SELECT count FROM denominations WHERE value = $1 FOR UPDATE
		`, u.Value).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		if count < u.Count {
			return store.ErrConflict
		}
	}
	for _, u := range used {
		tag, err := tx.Exec(ctx, `
			UPDATE denominations
			SET count = count - $2
			WHERE value = $1 AND count >= $2
		`, u.Value, u.Count)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrConflict
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertDomainEvent(ctx context.Context, ev events.Event) (events.Event, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING occurred_at
	`, ev.ID, ev.Topic, ev.AggregateID, []byte(ev.Payload), ev.OccurredAt).Scan(&ev.OccurredAt)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

func scanProduct(row pgx.Row) (store.Product, error) {
	var (
		p           store.Product
		price, rate string
	)
	if err := row.Scan(&p.SKU, &p.Name, &price, &rate, &p.AvailableStock, &p.CreatedAt); err != nil {
		return store.Product{}, err
	}
	var err error
	if p.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return store.Product{}, err
	}
	if p.TaxRate, err = decimal.NewFromString(rate); err != nil {
		return store.Product{}, err
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
