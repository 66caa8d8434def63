// Package memory is the local data layer of the storefront.
//
// Storages keep their data in process memory and may delay every call
// to simulate network latency.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsStorage)(nil)
var _ port.OrdersStorage = (*OrdersStorage)(nil)
var _ port.CartStorage = (*CartStorage)(nil)

// latency blocks for d or until ctx is done.
type latency time.Duration

func (l latency) wait(ctx context.Context) error {
	if l <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(l))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type ProductsStorage struct {
	latency  latency
	products []domain.Product
}

// NewProductsStorage holds a copy of products in the given order.
func NewProductsStorage(products []domain.Product, delay time.Duration) *ProductsStorage {
	return &ProductsStorage{
		latency:  latency(delay),
		products: slices.Clone(products),
	}
}

func (s *ProductsStorage) ReadProducts(
	ctx context.Context, q domain.ProductQuery,
) (domain.ProductPage, error) {
	const op = "memory.ProductsStorage.ReadProducts"

	if err := s.latency.wait(ctx); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}
	return catalog.Query(s.products, q), nil
}

func (s *ProductsStorage) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "memory.ProductsStorage.ReadProduct"

	if err := s.latency.wait(ctx); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	for _, p := range s.products {
		if p.ProductID == productID {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
}

// OrdersStorage is an append-only collection of orders keyed by user id.
type OrdersStorage struct {
	latency latency
	mu      sync.RWMutex
	orders  map[string][]domain.Order
}

func NewOrdersStorage(delay time.Duration) *OrdersStorage {
	return &OrdersStorage{
		latency: latency(delay),
		orders:  make(map[string][]domain.Order),
	}
}

func (s *OrdersStorage) StoreOrder(ctx context.Context, o domain.Order) error {
	const op = "memory.OrdersStorage.StoreOrder"

	if err := s.latency.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.UserID] = append(s.orders[o.UserID], o)
	return nil
}

func (s *OrdersStorage) ReadOrders(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "memory.OrdersStorage.ReadOrders"

	if err := s.latency.wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders[userID]), nil
}

type CartStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewCartStorage() *CartStorage {
	return &CartStorage{data: make(map[string][]byte)}
}

func (s *CartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	const op = "memory.CartStorage.Load"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return slices.Clone(v), nil
}

func (s *CartStorage) Save(ctx context.Context, key string, data []byte) error {
	const op = "memory.CartStorage.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(data)
	return nil
}

func (s *CartStorage) Delete(ctx context.Context, key string) error {
	const op = "memory.CartStorage.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
