package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/money"
	"github.com/noah-isme/backend-kasir/internal/store"
	"github.com/noah-isme/backend-kasir/internal/store/memory"
)

func seed(t *testing.T, s *memory.Store, sku string, stock int) {
	t.Helper()
	_, err := s.CreateProduct(context.Background(), store.Product{
		SKU:            sku,
		Name:           "Item " + sku,
		UnitPrice:      money.MustParse("10.00"),
		TaxRate:        money.MustParse("5.00"),
		AvailableStock: stock,
	})
	require.NoError(t, err)
}

func TestCreateProductConflict(t *testing.T) {
	s := memory.New()
	seed(t, s, "SKU1001", 10)
	_, err := s.CreateProduct(context.Background(), store.Product{SKU: "SKU1001"})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestGetOrCreateCustomerIdempotent(t *testing.T) {
	s := memory.New()
	first, err := s.GetOrCreateCustomer(context.Background(), "a@b.com")
	require.NoError(t, err)
	second, err := s.GetOrCreateCustomer(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	other, err := s.GetOrCreateCustomer(context.Background(), "c@d.com")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestCreatePurchaseDecrementsStock(t *testing.T) {
	s := memory.New()
	seed(t, s, "SKU1001", 10)

	p := store.Purchase{
		InvoiceNo:  "AB12CD34",
		CustomerID: 1,
		Lines:      []store.PricedLine{{SKU: "SKU1001", Qty: 4}},
	}
	created, err := s.CreatePurchase(context.Background(), p)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	prod, err := s.GetProductBySKU(context.Background(), "SKU1001")
	require.NoError(t, err)
	require.Equal(t, 6, prod.AvailableStock)
}

func TestCreatePurchaseDuplicateInvoice(t *testing.T) {
	s := memory.New()
	seed(t, s, "SKU1001", 10)

	p := store.Purchase{InvoiceNo: "AB12CD34", Lines: []store.PricedLine{{SKU: "SKU1001", Qty: 1}}}
	_, err := s.CreatePurchase(context.Background(), p)
	require.NoError(t, err)
	_, err = s.CreatePurchase(context.Background(), p)
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestCreatePurchaseAllOrNothing(t *testing.T) {
	s := memory.New()
	seed(t, s, "SKU1001", 10)
	seed(t, s, "SKU1002", 2)

	p := store.Purchase{
		InvoiceNo: "AB12CD34",
		Lines: []store.PricedLine{
			{SKU: "SKU1001", Qty: 5},
			{SKU: "SKU1002", Qty: 3},
		},
	}
	_, err := s.CreatePurchase(context.Background(), p)
	var stockErr *store.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "SKU1002", stockErr.SKU)

	prod, err := s.GetProductBySKU(context.Background(), "SKU1001")
	require.NoError(t, err)
	require.Equal(t, 10, prod.AvailableStock)
}

func TestDecrementTill(t *testing.T) {
	s := memory.New()
	_, err := s.TopUpDenomination(context.Background(), 500, 2)
	require.NoError(t, err)
	_, err = s.TopUpDenomination(context.Background(), 100, 3)
	require.NoError(t, err)

	err = s.DecrementTill(context.Background(), []store.DenominationUse{
		{Value: 500, Count: 1},
		{Value: 100, Count: 2},
	})
	require.NoError(t, err)

	till, err := s.ListDenominations(context.Background())
	require.NoError(t, err)
	counts := map[int64]int{}
	for _, d := range till {
		counts[d.Value] = d.Count
	}
	require.Equal(t, map[int64]int{500: 1, 100: 1}, counts)
}

func TestDecrementTillAllOrNothing(t *testing.T) {
	s := memory.New()
	_, err := s.TopUpDenomination(context.Background(), 500, 2)
	require.NoError(t, err)
	_, err = s.TopUpDenomination(context.Background(), 100, 1)
	require.NoError(t, err)

	err = s.DecrementTill(context.Background(), []store.DenominationUse{
		{Value: 500, Count: 1},
		{Value: 100, Count: 2},
	})
	require.ErrorIs(t, err, store.ErrConflict)

	till, err := s.ListDenominations(context.Background())
	require.NoError(t, err)
	counts := map[int64]int{}
	for _, d := range till {
		counts[d.Value] = d.Count
	}
	require.Equal(t, map[int64]int{500: 2, 100: 1}, counts, "failed payout must not touch the till")
}

func TestDecrementTillUnknownValue(t *testing.T) {
	s := memory.New()
	err := s.DecrementTill(context.Background(), []store.DenominationUse{{Value: 50, Count: 1}})
	require.ErrorIs(t, err, store.ErrNotFound)
}
