package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/memory"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedProducts(t *testing.T) {
	products := memory.SeedProducts()
	require.NotEmpty(t, products)

	ids := make(map[string]struct{})
	byCategory := make(map[domain.Category]int)
	for _, p := range products {
		_, dup := ids[p.ProductID]
		assert.False(t, dup, "duplicate id %s", p.ProductID)
		ids[p.ProductID] = struct{}{}
		byCategory[p.Category]++

		assert.NotEmpty(t, p.Name)
		assert.GreaterOrEqual(t, p.Price, 0.0)
		assert.GreaterOrEqual(t, p.Stock, 0)
		if p.OriginalPrice != nil {
			assert.Greater(t, *p.OriginalPrice, p.Price)
		}
	}

	for _, c := range domain.Categories() {
		if c.IsAll() {
			continue
		}
		assert.Positive(t, byCategory[c], "no products in %s", c)
	}
}

func TestProductsStorage(t *testing.T) {
	s := memory.NewProductsStorage(memory.SeedProducts(), 0)

	t.Run("ReadProducts", func(t *testing.T) {
		page, err := s.ReadProducts(t.Context(), domain.ProductQuery{
			Page:     1,
			PageSize: 4,
			Category: domain.CategorySports,
		})
		require.NoError(t, err)
		assert.Equal(t, 4, page.TotalCount)
		assert.Len(t, page.Products, 4)
		for _, p := range page.Products {
			assert.Equal(t, domain.CategorySports, p.Category)
		}
	})

	t.Run("ReadProduct", func(t *testing.T) {
		p, err := s.ReadProduct(t.Context(), "3")
		require.NoError(t, err)
		assert.Equal(t, "Mechanical Keyboard", p.Name)
	})

	t.Run("ReadProductNotFound", func(t *testing.T) {
		_, err := s.ReadProduct(t.Context(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SourceNotShared", func(t *testing.T) {
		src := []domain.Product{{ProductID: "x", Name: "X"}}
		s := memory.NewProductsStorage(src, 0)
		src[0].Name = "changed"

		p, err := s.ReadProduct(t.Context(), "x")
		require.NoError(t, err)
		assert.Equal(t, "X", p.Name)
	})
}

func TestLatencyRespectsContext(t *testing.T) {
	s := memory.NewProductsStorage(memory.SeedProducts(), time.Hour)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.ReadProducts(ctx, domain.ProductQuery{Page: 1, PageSize: 12})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLatencyDelays(t *testing.T) {
	s := memory.NewOrdersStorage(20 * time.Millisecond)

	start := time.Now()
	_, err := s.ReadOrders(t.Context(), "u1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestOrdersStorage(t *testing.T) {
	s := memory.NewOrdersStorage(0)
	ctx := t.Context()

	orders, err := s.ReadOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)

	require.NoError(t, s.StoreOrder(ctx, domain.Order{OrderID: "o1", UserID: "u1"}))
	require.NoError(t, s.StoreOrder(ctx, domain.Order{OrderID: "o2", UserID: "u2"}))
	require.NoError(t, s.StoreOrder(ctx, domain.Order{OrderID: "o3", UserID: "u1"}))

	orders, err = s.ReadOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].OrderID)
	assert.Equal(t, "o3", orders[1].OrderID)

	orders[0].OrderID = "changed"
	again, err := s.ReadOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "o1", again[0].OrderID)
}

func TestCartStorage(t *testing.T) {
	s := memory.NewCartStorage()
	ctx := t.Context()

	_, err := s.Load(ctx, "cart")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Save(ctx, "cart", []byte(`[]`)))
	v, err := s.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Load(ctx, "cart")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "cart"))
}
