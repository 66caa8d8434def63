package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// DefaultKey is the storage key of the local cart.
const DefaultKey = "cart"

// A Store holds a cart and persists it after every transition.
//
// A Store is not safe for concurrent use, see [Carts].
type Store struct {
	key     string
	storage port.CartStorage
	cart    domain.Cart
}

// Open rehydrates the cart persisted under key.
//
// Absent, unreadable or malformed data opens an empty cart.
func Open(ctx context.Context, storage port.CartStorage, key string) *Store {
	const op = "cart.Open"
	log := slog.With("op", op, "key", key)

	s := &Store{key: key, storage: storage, cart: Clear()}

	data, err := storage.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("failed to load cart, starting empty", "err", err)
		}
		return s
	}

	c, err := Unmarshal(data)
	if err != nil {
		log.Warn("persisted cart is malformed, starting empty", "err", err)
		return s
	}
	s.cart = c
	return s
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	return clone(s.cart)
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) Add(ctx context.Context, p domain.Product) (domain.Cart, error) {
	const op = "Store.Add"
	return s.apply(ctx, op, func(c domain.Cart) domain.Cart {
		return Add(c, p)
	})
}

// AddN adds n items of p. n must be within [1, p.Stock].
func (s *Store) AddN(
	ctx context.Context, p domain.Product, n int,
) (domain.Cart, error) {
	const op = "Store.AddN"

	var verr domain.ValidationError
	switch {
	case !p.InStock():
		verr.Add("quantity", "product is out of stock")
	case n < 1:
		verr.Add("quantity", "must be at least 1")
	case n > p.Stock:
		verr.Add("quantity", fmt.Sprintf("must be at most %d", p.Stock))
	}
	if err := verr.Err(); err != nil {
		return s.Cart(), fmt.Errorf("%s: %w", op, err)
	}

	return s.apply(ctx, op, func(c domain.Cart) domain.Cart {
		return AddN(c, p, n)
	})
}

func (s *Store) Remove(ctx context.Context, productID string) (domain.Cart, error) {
	const op = "Store.Remove"
	return s.apply(ctx, op, func(c domain.Cart) domain.Cart {
		return Remove(c, productID)
	})
}

// SetQuantity is a no-op for quantities below one.
func (s *Store) SetQuantity(
	ctx context.Context, productID string, qty int,
) (domain.Cart, error) {
	const op = "Store.SetQuantity"
	if qty < 1 {
		return s.Cart(), nil
	}
	return s.apply(ctx, op, func(c domain.Cart) domain.Cart {
		return SetQuantity(c, productID, qty)
	})
}

// Clear empties the cart and deletes its persisted state.
func (s *Store) Clear(ctx context.Context) error {
	const op = "Store.Clear"
	s.cart = Clear()
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) apply(
	ctx context.Context, op string, transition func(domain.Cart) domain.Cart,
) (domain.Cart, error) {
	s.cart = transition(s.cart)
	if err := s.persist(ctx); err != nil {
		return s.Cart(), fmt.Errorf("%s: %w", op, err)
	}
	return s.Cart(), nil
}

func (s *Store) persist(ctx context.Context) error {
	data, err := Marshal(s.cart)
	if err != nil {
		return err
	}
	return s.storage.Save(ctx, s.key, data)
}

// Carts opens session carts and runs operations on them one at a time
// per storage key.
type Carts struct {
	storage port.CartStorage

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock is dropped from Carts.locks once refs reaches zero.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewCarts(storage port.CartStorage) *Carts {
	return &Carts{storage: storage, locks: make(map[string]*keyLock)}
}

// SessionKey returns the storage key of the userID cart.
func SessionKey(userID string) string {
	return DefaultKey + ":" + userID
}

// Do opens the cart under key and calls fn holding the key lock.
func (c *Carts) Do(
	ctx context.Context, key string, fn func(*Store) error,
) error {
	unlock := c.lock(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(Open(ctx, c.storage, key))
}

func (c *Carts) lock(key string) func() {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = new(keyLock)
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}
