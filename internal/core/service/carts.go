package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/checkout"
	"github.com/niksmo/storefront/internal/core/domain"
)

// ErrCartsDisabled matches [domain.ErrUnavailable].
var ErrCartsDisabled = fmt.Errorf("session carts are disabled: %w", domain.ErrUnavailable)

func (s *Service) Cart(ctx context.Context, userID string) (domain.Cart, error) {
	const op = "Service.Cart"

	var c domain.Cart
	err := s.doCart(ctx, userID, func(store *cart.Store) error {
		c = store.Cart()
		return nil
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// AddToCart adds n items of the product to the user cart.
func (s *Service) AddToCart(
	ctx context.Context, userID, productID string, n int,
) (domain.Cart, error) {
	const op = "Service.AddToCart"

	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	var c domain.Cart
	err = s.doCart(ctx, userID, func(store *cart.Store) error {
		var err error
		c, err = store.AddN(ctx, p, n)
		return err
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Service) RemoveFromCart(
	ctx context.Context, userID, productID string,
) (domain.Cart, error) {
	const op = "Service.RemoveFromCart"

	var c domain.Cart
	err := s.doCart(ctx, userID, func(store *cart.Store) error {
		var err error
		c, err = store.Remove(ctx, productID)
		return err
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// UpdateQuantity rejects quantities below one.
func (s *Service) UpdateQuantity(
	ctx context.Context, userID, productID string, qty int,
) (domain.Cart, error) {
	const op = "Service.UpdateQuantity"

	if qty < 1 {
		var verr domain.ValidationError
		verr.Add("quantity", "must be at least 1")
		return domain.Cart{}, fmt.Errorf("%s: %w", op, &verr)
	}

	var c domain.Cart
	err := s.doCart(ctx, userID, func(store *cart.Store) error {
		if _, ok := cart.Line(store.Cart(), productID); !ok {
			return domain.ErrNotFound
		}
		var err error
		c, err = store.SetQuantity(ctx, productID, qty)
		return err
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	const op = "Service.ClearCart"

	err := s.doCart(ctx, userID, func(store *cart.Store) error {
		return store.Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Checkout places an order for the user cart and clears it.
func (s *Service) Checkout(
	ctx context.Context, userID string, si domain.ShippingInfo,
) (domain.Order, error) {
	const op = "Service.Checkout"

	var order domain.Order
	err := s.doCart(ctx, userID, func(store *cart.Store) error {
		var err error
		order, err = checkout.Submit(ctx, s, store, userID, si)
		return err
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *Service) doCart(
	ctx context.Context, userID string, fn func(*cart.Store) error,
) error {
	if s.carts == nil {
		return ErrCartsDisabled
	}
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return s.carts.Do(ctx, cart.SessionKey(userID), fn)
}
