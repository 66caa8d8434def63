package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
)

var ErrMalformed = errors.New("malformed cart data")

type (
	storedLine struct {
		Product  storedProduct `json:"product"`
		Quantity int           `json:"quantity"`
	}

	storedProduct struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Price         float64  `json:"price"`
		Category      string   `json:"category"`
		Image         string   `json:"image"`
		Description   string   `json:"description"`
		Stock         int      `json:"stock"`
		OriginalPrice *float64 `json:"originalPrice,omitempty"`
	}
)

// Marshal encodes the cart as an ordered list of product/quantity pairs.
func Marshal(c domain.Cart) ([]byte, error) {
	vs := make([]storedLine, len(c.Lines))
	for i, l := range c.Lines {
		vs[i] = toStoredLine(l)
	}
	return json.Marshal(vs)
}

// Unmarshal decodes data produced by [Marshal].
//
// Lines without product id, with quantity below one or
// duplicating a product id make the whole data malformed.
func Unmarshal(data []byte) (domain.Cart, error) {
	const op = "cart.Unmarshal"

	var vs []storedLine
	if err := json.Unmarshal(data, &vs); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
	}

	c := domain.Cart{Lines: make([]domain.CartLine, 0, len(vs))}
	seen := make(map[string]struct{}, len(vs))
	for i, v := range vs {
		if v.Product.ID == "" || v.Quantity < 1 {
			return domain.Cart{}, fmt.Errorf("%s: %w: line %d", op, ErrMalformed, i)
		}
		if _, ok := seen[v.Product.ID]; ok {
			return domain.Cart{}, fmt.Errorf(
				"%s: %w: duplicate product %q", op, ErrMalformed, v.Product.ID,
			)
		}
		seen[v.Product.ID] = struct{}{}
		c.Lines = append(c.Lines, fromStoredLine(v))
	}
	return c, nil
}

func toStoredLine(l domain.CartLine) storedLine {
	return storedLine{
		Product: storedProduct{
			ID:            l.Product.ProductID,
			Name:          l.Product.Name,
			Price:         l.Product.Price,
			Category:      string(l.Product.Category),
			Image:         l.Product.Image,
			Description:   l.Product.Description,
			Stock:         l.Product.Stock,
			OriginalPrice: l.Product.OriginalPrice,
		},
		Quantity: l.Quantity,
	}
}

func fromStoredLine(v storedLine) domain.CartLine {
	return domain.CartLine{
		Product: domain.Product{
			ProductID:     v.Product.ID,
			Name:          v.Product.Name,
			Price:         v.Product.Price,
			Category:      domain.Category(v.Product.Category),
			Image:         v.Product.Image,
			Description:   v.Product.Description,
			Stock:         v.Product.Stock,
			OriginalPrice: v.Product.OriginalPrice,
		},
		Quantity: v.Quantity,
	}
}
