package cart_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mapStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: make(map[string][]byte)}
}

func (s *mapStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
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

type MockCartStorage struct {
	mock.Mock
}

func (m *MockCartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockCartStorage) Save(ctx context.Context, key string, data []byte) error {
	return m.Called(ctx, key, data).Error(0)
}

func (m *MockCartStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestStore(t *testing.T) {
	t.Run("PersistsEveryMutation", func(t *testing.T) {
		storage := newMapStorage()
		s := cart.Open(t.Context(), storage, cart.DefaultKey)

		_, err := s.Add(t.Context(), productA)
		require.NoError(t, err)
		_, err = s.Add(t.Context(), productB)
		require.NoError(t, err)
		_, err = s.SetQuantity(t.Context(), "a", 4)
		require.NoError(t, err)

		reopened := cart.Open(t.Context(), storage, cart.DefaultKey)
		assert.Equal(t, s.Cart(), reopened.Cart())
		assert.Equal(t, 5, cart.ItemCount(reopened.Cart()))

		_, err = s.Remove(t.Context(), "a")
		require.NoError(t, err)
		reopened = cart.Open(t.Context(), storage, cart.DefaultKey)
		require.Len(t, reopened.Cart().Lines, 1)
	})

	t.Run("ClearDeletesKey", func(t *testing.T) {
		storage := newMapStorage()
		s := cart.Open(t.Context(), storage, cart.DefaultKey)
		_, err := s.Add(t.Context(), productA)
		require.NoError(t, err)

		require.NoError(t, s.Clear(t.Context()))

		_, err = storage.Load(t.Context(), cart.DefaultKey)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.True(t, cart.Open(t.Context(), storage, cart.DefaultKey).Cart().Empty())
	})

	t.Run("MalformedDataOpensEmpty", func(t *testing.T) {
		storage := newMapStorage()
		require.NoError(t, storage.Save(t.Context(), cart.DefaultKey, []byte("not json")))

		s := cart.Open(t.Context(), storage, cart.DefaultKey)
		assert.True(t, s.Cart().Empty())
	})

	t.Run("UnreadableStorageOpensEmpty", func(t *testing.T) {
		storage := new(MockCartStorage)
		storage.On("Load", mock.Anything, "k").Return(nil, errors.New("disk"))

		s := cart.Open(t.Context(), storage, "k")
		assert.True(t, s.Cart().Empty())
		storage.AssertExpectations(t)
	})

	t.Run("SaveFailureKeepsState", func(t *testing.T) {
		saveErr := errors.New("disk full")
		storage := new(MockCartStorage)
		storage.On("Load", mock.Anything, "k").Return(nil, domain.ErrNotFound)
		storage.On("Save", mock.Anything, "k", mock.Anything).Return(saveErr)

		s := cart.Open(t.Context(), storage, "k")
		c, err := s.Add(t.Context(), productA)
		assert.ErrorIs(t, err, saveErr)
		assert.Len(t, c.Lines, 1)
		assert.Len(t, s.Cart().Lines, 1)
	})

	t.Run("SetQuantityBelowOneDoesNotPersist", func(t *testing.T) {
		storage := new(MockCartStorage)
		storage.On("Load", mock.Anything, "k").Return(nil, domain.ErrNotFound)

		s := cart.Open(t.Context(), storage, "k")
		_, err := s.SetQuantity(t.Context(), "a", 0)
		require.NoError(t, err)
		storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AddNValidatesStock", func(t *testing.T) {
		s := cart.Open(t.Context(), newMapStorage(), "k")

		_, err := s.AddN(t.Context(), productA, 6)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		_, err = s.AddN(t.Context(), productA, 0)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		_, err = s.AddN(t.Context(), productC, 1)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		assert.True(t, s.Cart().Empty())

		c, err := s.AddN(t.Context(), productA, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, cart.ItemCount(c))
	})

	t.Run("CartReturnsCopy", func(t *testing.T) {
		s := cart.Open(t.Context(), newMapStorage(), "k")
		_, err := s.Add(t.Context(), productA)
		require.NoError(t, err)

		c := s.Cart()
		c.Lines[0].Quantity = 99
		assert.Equal(t, 1, s.Cart().Lines[0].Quantity)
	})
}

func TestCarts(t *testing.T) {
	storage := newMapStorage()
	carts := cart.NewCarts(storage)
	key := cart.SessionKey("user-1")
	assert.Equal(t, "cart:user-1", key)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			err := carts.Do(context.Background(), key, func(s *cart.Store) error {
				_, err := s.Add(context.Background(), productA)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	err := carts.Do(t.Context(), key, func(s *cart.Store) error {
		c := s.Cart()
		require.Len(t, c.Lines, 1)
		assert.Equal(t, workers, c.Lines[0].Quantity)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err = carts.Do(ctx, key, func(*cart.Store) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, carts.LockCount())
}

func TestCartsReleasesKeyLocks(t *testing.T) {
	carts := cart.NewCarts(newMapStorage())

	const users, rounds = 50, 4
	var wg sync.WaitGroup
	wg.Add(users * rounds)
	for u := range users {
		key := cart.SessionKey(fmt.Sprintf("user-%d", u))
		for range rounds {
			go func() {
				defer wg.Done()
				err := carts.Do(context.Background(), key, func(s *cart.Store) error {
					_, err := s.Add(context.Background(), productA)
					return err
				})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()
	assert.Zero(t, carts.LockCount())

	key := cart.SessionKey("user-7")
	err := carts.Do(t.Context(), key, func(s *cart.Store) error {
		assert.Equal(t, 1, carts.LockCount())
		assert.Equal(t, rounds, s.Cart().Lines[0].Quantity)
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Zero(t, carts.LockCount())
}
