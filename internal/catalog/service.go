// Package catalog is the thin CRUD surface around the billing core: product
// records and the till's denomination inventory.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/billing"
	"github.com/noah-isme/backend-kasir/internal/money"
	"github.com/noah-isme/backend-kasir/internal/store"
)

const productListCacheKey = "kasir:catalog:products"

// Service orchestrates catalog reads and writes with a read-through cache.
type Service struct {
	Store store.Store
	Cache *Cache
}

// ListProducts returns all products ordered by SKU.
func (s *Service) ListProducts(ctx context.Context) ([]store.Product, error) {
	var cached []store.Product
	if ok, err := s.Cache.GetJSON(ctx, productListCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].SKU < products[j].SKU })
	_ = s.Cache.SetJSON(ctx, productListCacheKey, products)
	return products, nil
}

// ProductInput carries the fields needed to register a product.
type ProductInput struct {
	SKU          string
	Name         string
	UnitPrice    string
	TaxRate      string
	InitialStock int
}

// CreateProduct registers a new product and seeds its initial stock.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (store.Product, error) {
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" || in.InitialStock < 0 {
		return store.Product{}, billing.ErrInvalidAmount
	}
	price, err := money.Parse(in.UnitPrice)
	if err != nil || price.Sign() < 0 {
		return store.Product{}, billing.ErrInvalidAmount
	}
	rate, err := money.Parse(in.TaxRate)
	if err != nil || rate.Sign() < 0 {
		return store.Product{}, billing.ErrInvalidAmount
	}
	created, err := s.Store.CreateProduct(ctx, store.Product{
		SKU:            sku,
		Name:           name,
		UnitPrice:      price,
		TaxRate:        rate,
		AvailableStock: in.InitialStock,
	})
	if err != nil {
		return store.Product{}, err
	}
	s.Cache.Invalidate(ctx, productListCacheKey)
	return created, nil
}

// GetProduct resolves one product by SKU.
func (s *Service) GetProduct(ctx context.Context, sku string) (store.Product, error) {
	return s.Store.GetProductBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
}

// ListTill returns the denomination inventory, largest value first.
func (s *Service) ListTill(ctx context.Context) ([]store.Denomination, error) {
	till, err := s.Store.ListDenominations(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(till, func(i, j int) bool { return till[i].Value > till[j].Value })
	return till, nil
}

// TopUpTill adds notes of one face value to the till.
func (s *Service) TopUpTill(ctx context.Context, value int64, count int) (store.Denomination, error) {
	if value <= 0 || count <= 0 {
		return store.Denomination{}, billing.ErrInvalidAmount
	}
	return s.Store.TopUpDenomination(ctx, value, count)
}
