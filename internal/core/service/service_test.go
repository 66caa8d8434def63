package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/checkout"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductsStorage struct {
	mock.Mock
}

func (m *MockProductsStorage) ReadProducts(
	ctx context.Context, q domain.ProductQuery,
) (domain.ProductPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.ProductPage), args.Error(1)
}

func (m *MockProductsStorage) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

type MockOrdersStorage struct {
	mock.Mock
}

func (m *MockOrdersStorage) StoreOrder(ctx context.Context, o domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrdersStorage) ReadOrders(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	os, _ := args.Get(0).([]domain.Order)
	return os, args.Error(1)
}

type MockOrderEvents struct {
	mock.Mock
}

func (m *MockOrderEvents) ProduceOrder(ctx context.Context, o domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(u domain.User) (string, error) {
	args := m.Called(u)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) Verify(token string) (domain.User, error) {
	args := m.Called(token)
	return args.Get(0).(domain.User), args.Error(1)
}

type mapStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *mapStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (s *mapStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func (s *mapStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var (
	productA = domain.Product{ProductID: "a", Name: "A", Price: 10, Stock: 3}
	productB = domain.Product{ProductID: "b", Name: "B", Price: 5, Stock: 3}

	shipping = domain.ShippingInfo{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Address: "1 Main Street",
		City:    "Springfield",
		ZipCode: "12345",
	}

	fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
)

type deps struct {
	products *MockProductsStorage
	orders   *MockOrdersStorage
	events   *MockOrderEvents
	tokens   *MockTokenIssuer
}

func newService(opts ...service.Opt) (*service.Service, deps) {
	d := deps{
		products: new(MockProductsStorage),
		orders:   new(MockOrdersStorage),
		events:   new(MockOrderEvents),
		tokens:   new(MockTokenIssuer),
	}
	opts = append([]service.Opt{
		service.WithOrderEvents(d.events),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithIDGenerator(func() string { return "order-1" }),
		service.WithCarts(cart.NewCarts(&mapStorage{data: make(map[string][]byte)})),
	}, opts...)
	return service.New(d.products, d.orders, d.tokens, opts...), d
}

func draft(userID string) domain.OrderDraft {
	lines := []domain.CartLine{
		{Product: productA, Quantity: 2},
		{Product: productB, Quantity: 1},
	}
	return domain.OrderDraft{
		UserID:   userID,
		Lines:    lines,
		Total:    checkout.ComputeTotals(lines).Total,
		Shipping: shipping,
	}
}

func TestListProducts(t *testing.T) {
	s, d := newService()

	want := domain.ProductPage{Products: []domain.Product{productA}, TotalCount: 1}
	d.products.On("ReadProducts", mock.Anything, domain.ProductQuery{
		Page:       1,
		PageSize:   12,
		SearchTerm: "a",
		Category:   domain.CategoryAll,
		SortField:  domain.SortByPrice,
		SortOrder:  domain.SortAsc,
	}).Return(want, nil)

	got, err := s.ListProducts(t.Context(), domain.ProductQuery{SearchTerm: "a"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	d.products.AssertExpectations(t)
}

func TestGetProduct(t *testing.T) {
	s, d := newService()
	d.products.On("ReadProduct", mock.Anything, "missing").
		Return(domain.Product{}, domain.ErrNotFound)

	_, err := s.GetProduct(t.Context(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.GetProduct(t.Context(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateOrder(t *testing.T) {
	t.Run("AssignsIDAndTime", func(t *testing.T) {
		s, d := newService()
		want := domain.Order{
			OrderID:   "order-1",
			UserID:    "u1",
			Lines:     draft("u1").Lines,
			Total:     draft("u1").Total,
			Shipping:  shipping,
			CreatedAt: fixedNow,
		}
		d.orders.On("StoreOrder", mock.Anything, want).Return(nil)
		d.events.On("ProduceOrder", mock.Anything, want).Return(nil)

		got, err := s.CreateOrder(t.Context(), draft("u1"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.InDelta(t, 27.5, got.Total, 1e-9)
		d.orders.AssertExpectations(t)
		d.events.AssertExpectations(t)
	})

	t.Run("AnonymousBucket", func(t *testing.T) {
		s, d := newService()
		d.orders.On("StoreOrder", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
			return o.UserID == domain.AnonymousUserID
		})).Return(nil)
		d.events.On("ProduceOrder", mock.Anything, mock.Anything).Return(nil)

		got, err := s.CreateOrder(t.Context(), draft(""))
		require.NoError(t, err)
		assert.Equal(t, domain.AnonymousUserID, got.UserID)
	})

	t.Run("InvalidDraft", func(t *testing.T) {
		s, d := newService()
		bad := draft("u1")
		bad.Total = 1

		_, err := s.CreateOrder(t.Context(), bad)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		d.orders.AssertNotCalled(t, "StoreOrder", mock.Anything, mock.Anything)
	})

	t.Run("StorageFailure", func(t *testing.T) {
		s, d := newService()
		d.orders.On("StoreOrder", mock.Anything, mock.Anything).Return(domain.ErrUnavailable)

		_, err := s.CreateOrder(t.Context(), draft("u1"))
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		d.events.AssertNotCalled(t, "ProduceOrder", mock.Anything, mock.Anything)
	})

	t.Run("EventFailureIsNotFatal", func(t *testing.T) {
		s, d := newService()
		d.orders.On("StoreOrder", mock.Anything, mock.Anything).Return(nil)
		d.events.On("ProduceOrder", mock.Anything, mock.Anything).Return(errors.New("broker"))

		_, err := s.CreateOrder(t.Context(), draft("u1"))
		assert.NoError(t, err)
	})
}

func TestListOrdersByUser(t *testing.T) {
	t.Run("FromOrdersStorage", func(t *testing.T) {
		s, d := newService()
		want := []domain.Order{{OrderID: "o1", UserID: "u1"}}
		d.orders.On("ReadOrders", mock.Anything, "u1").Return(want, nil)

		got, err := s.ListOrdersByUser(t.Context(), "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("FromHistoryReader", func(t *testing.T) {
		history := new(MockOrdersStorage)
		s, d := newService(service.WithOrdersReader(history))
		history.On("ReadOrders", mock.Anything, domain.AnonymousUserID).Return(nil, nil)

		got, err := s.ListOrdersByUser(t.Context(), "")
		require.NoError(t, err)
		assert.Empty(t, got)
		d.orders.AssertNotCalled(t, "ReadOrders", mock.Anything, mock.Anything)
		history.AssertExpectations(t)
	})
}

func TestLogin(t *testing.T) {
	t.Run("AnyEmailSucceeds", func(t *testing.T) {
		s, d := newService()
		d.tokens.On("Issue", mock.Anything).Return("token", nil)

		sess, err := s.Login(t.Context(), " Jane@Example.com ", "whatever")
		require.NoError(t, err)
		assert.Equal(t, "token", sess.Token)
		assert.Equal(t, "Jane", sess.User.Name)
		assert.Equal(t, "Jane@Example.com", sess.User.Email)
		assert.Equal(t, service.UserID("jane@example.com"), sess.User.UserID)
	})

	t.Run("StableUserID", func(t *testing.T) {
		assert.Equal(t, service.UserID("a@b.c"), service.UserID("A@B.C"))
		assert.NotEqual(t, service.UserID("a@b.c"), service.UserID("d@b.c"))
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		s, _ := newService()
		_, err := s.Login(t.Context(), "  ", "pw")
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})
}

func TestAuthenticate(t *testing.T) {
	s, d := newService()
	user := domain.User{UserID: "u1"}
	d.tokens.On("Verify", "good").Return(user, nil)
	d.tokens.On("Verify", "bad").Return(domain.User{}, errors.New("signature"))

	got, err := s.Authenticate(t.Context(), "good")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = s.Authenticate(t.Context(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.Authenticate(t.Context(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSessionCarts(t *testing.T) {
	s, d := newService()
	d.products.On("ReadProduct", mock.Anything, "a").Return(productA, nil)
	d.products.On("ReadProduct", mock.Anything, "b").Return(productB, nil)
	d.products.On("ReadProduct", mock.Anything, "z").Return(domain.Product{}, domain.ErrNotFound)

	ctx := t.Context()

	c, err := s.AddToCart(ctx, "u1", "a", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount(c))

	_, err = s.AddToCart(ctx, "u1", "b", 1)
	require.NoError(t, err)

	_, err = s.AddToCart(ctx, "u1", "z", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.AddToCart(ctx, "u1", "a", 4)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	other, err := s.Cart(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.Empty())

	_, err = s.UpdateQuantity(ctx, "u1", "a", 0)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
	_, err = s.UpdateQuantity(ctx, "u1", "z", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err = s.UpdateQuantity(ctx, "u1", "a", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.ItemCount(c))

	c, err = s.RemoveFromCart(ctx, "u1", "b")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)

	_, err = s.Cart(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, s.ClearCart(ctx, "u1"))
	c, err = s.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestCheckout(t *testing.T) {
	s, d := newService()
	d.products.On("ReadProduct", mock.Anything, "a").Return(productA, nil)
	d.products.On("ReadProduct", mock.Anything, "b").Return(productB, nil)
	d.orders.On("StoreOrder", mock.Anything, mock.Anything).Return(nil)
	d.events.On("ProduceOrder", mock.Anything, mock.Anything).Return(nil)

	ctx := t.Context()
	_, err := s.AddToCart(ctx, "u1", "a", 2)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, "u1", "b", 1)
	require.NoError(t, err)

	order, err := s.Checkout(ctx, "u1", shipping)
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.OrderID)
	assert.Equal(t, "u1", order.UserID)
	assert.InDelta(t, 27.5, order.Total, 1e-9)

	c, err := s.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	_, err = s.Checkout(ctx, "u1", shipping)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestCartsDisabled(t *testing.T) {
	s := service.New(new(MockProductsStorage), new(MockOrdersStorage), new(MockTokenIssuer))
	_, err := s.Cart(t.Context(), "u1")
	assert.ErrorIs(t, err, service.ErrCartsDisabled)
}
