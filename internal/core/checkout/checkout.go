// Package checkout builds order drafts from carts and submits them.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	TaxRate = 0.1

	// TotalTolerance bounds the accepted difference between a draft total
	// and the total computed from its lines.
	TotalTolerance = 0.005
)

const (
	minNameLen    = 2
	minAddressLen = 5
	minCityLen    = 2
	minZipCodeLen = 5
)

type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

func ComputeTotals(lines []domain.CartLine) Totals {
	subtotal := cart.LinesSubtotal(lines)
	tax := subtotal * TaxRate
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// NormalizeShipping trims surrounding spaces of all fields.
func NormalizeShipping(si domain.ShippingInfo) domain.ShippingInfo {
	return domain.ShippingInfo{
		Name:    strings.TrimSpace(si.Name),
		Email:   strings.TrimSpace(si.Email),
		Address: strings.TrimSpace(si.Address),
		City:    strings.TrimSpace(si.City),
		ZipCode: strings.TrimSpace(si.ZipCode),
	}
}

func ValidateShipping(si domain.ShippingInfo) error {
	si = NormalizeShipping(si)

	var verr domain.ValidationError
	minLen(&verr, "name", si.Name, minNameLen)
	if _, err := mail.ParseAddress(si.Email); err != nil || !strings.Contains(si.Email, "@") {
		verr.Add("email", "invalid email address")
	}
	minLen(&verr, "address", si.Address, minAddressLen)
	minLen(&verr, "city", si.City, minCityLen)
	minLen(&verr, "zip_code", si.ZipCode, minZipCodeLen)
	return verr.Err()
}

func minLen(verr *domain.ValidationError, field, v string, n int) {
	if utf8.RuneCountInString(v) < n {
		verr.Add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

// NewDraft snapshots the cart lines and computes the order total.
func NewDraft(
	userID string, c domain.Cart, si domain.ShippingInfo,
) (domain.OrderDraft, error) {
	const op = "checkout.NewDraft"

	if c.Empty() {
		var verr domain.ValidationError
		verr.Add("items", "cart is empty")
		return domain.OrderDraft{}, fmt.Errorf("%s: %w", op, &verr)
	}

	if err := ValidateShipping(si); err != nil {
		return domain.OrderDraft{}, fmt.Errorf("%s: %w", op, err)
	}

	lines := make([]domain.CartLine, len(c.Lines))
	copy(lines, c.Lines)

	return domain.OrderDraft{
		UserID:   userID,
		Lines:    lines,
		Total:    ComputeTotals(lines).Total,
		Shipping: NormalizeShipping(si),
	}, nil
}

// ValidateDraft checks a draft received from a client.
func ValidateDraft(d domain.OrderDraft) error {
	var verr domain.ValidationError

	if len(d.Lines) == 0 {
		verr.Add("items", "order has no items")
	}
	seen := make(map[string]struct{}, len(d.Lines))
	for i, l := range d.Lines {
		field := fmt.Sprintf("items[%d]", i)
		if l.Product.ProductID == "" {
			verr.Add(field, "product id is required")
		}
		if _, ok := seen[l.Product.ProductID]; ok {
			verr.Add(field, "duplicate product")
		}
		seen[l.Product.ProductID] = struct{}{}
		if l.Quantity < 1 {
			verr.Add(field, "quantity must be at least 1")
		}
		if l.Product.Price < 0 {
			verr.Add(field, "price must not be negative")
		}
	}

	want := ComputeTotals(d.Lines).Total
	if math.Abs(d.Total-want) > TotalTolerance {
		verr.Add("total", fmt.Sprintf("must be %.2f", want))
	}

	if err := ValidateShipping(d.Shipping); err != nil {
		var se *domain.ValidationError
		if errors.As(err, &se) {
			verr.Fields = append(verr.Fields, se.Fields...)
		}
	}
	return verr.Err()
}

// Submit creates an order from the store cart and clears the cart
// once the order is created.
//
// The cart is left untouched on failure.
func Submit(
	ctx context.Context,
	creator port.OrderCreator,
	store *cart.Store,
	userID string,
	si domain.ShippingInfo,
) (domain.Order, error) {
	const op = "checkout.Submit"
	log := slog.With("op", op)

	draft, err := NewDraft(userID, store.Cart(), si)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	order, err := creator.CreateOrder(ctx, draft)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := store.Clear(ctx); err != nil {
		log.Error("failed to clear cart after order", "err", err)
	}

	log.Info("order created", "orderID", order.OrderID, "total", order.Total)
	return order, nil
}
