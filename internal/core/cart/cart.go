// Package cart implements the shopping cart transitions and the
// cart store that persists them.
package cart

import "github.com/niksmo/storefront/internal/core/domain"

// Add increments the quantity of the product line by one,
// or appends a new line with quantity one.
func Add(c domain.Cart, p domain.Product) domain.Cart {
	next := clone(c)
	if i := index(next, p.ProductID); i >= 0 {
		next.Lines[i].Quantity++
		return next
	}
	next.Lines = append(next.Lines, domain.CartLine{Product: p, Quantity: 1})
	return next
}

// AddN applies [Add] n times.
func AddN(c domain.Cart, p domain.Product, n int) domain.Cart {
	next := clone(c)
	for range n {
		next = Add(next, p)
	}
	return next
}

// Remove deletes the line of productID. Missing lines are ignored.
func Remove(c domain.Cart, productID string) domain.Cart {
	next := domain.Cart{Lines: make([]domain.CartLine, 0, len(c.Lines))}
	for _, l := range c.Lines {
		if l.Product.ProductID != productID {
			next.Lines = append(next.Lines, l)
		}
	}
	return next
}

// SetQuantity replaces the quantity of the productID line in place.
//
// A quantity below one or a missing line leaves the cart unchanged.
func SetQuantity(c domain.Cart, productID string, qty int) domain.Cart {
	next := clone(c)
	if qty < 1 {
		return next
	}
	if i := index(next, productID); i >= 0 {
		next.Lines[i].Quantity = qty
	}
	return next
}

func Clear() domain.Cart {
	return domain.Cart{Lines: []domain.CartLine{}}
}

func Line(c domain.Cart, productID string) (domain.CartLine, bool) {
	if i := index(c, productID); i >= 0 {
		return c.Lines[i], true
	}
	return domain.CartLine{}, false
}

func Subtotal(c domain.Cart) float64 {
	return LinesSubtotal(c.Lines)
}

func LinesSubtotal(lines []domain.CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Product.Price * float64(l.Quantity)
	}
	return sum
}

func ItemCount(c domain.Cart) int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func index(c domain.Cart, productID string) int {
	for i, l := range c.Lines {
		if l.Product.ProductID == productID {
			return i
		}
	}
	return -1
}

func clone(c domain.Cart) domain.Cart {
	lines := make([]domain.CartLine, len(c.Lines), len(c.Lines)+1)
	copy(lines, c.Lines)
	return domain.Cart{Lines: lines}
}
