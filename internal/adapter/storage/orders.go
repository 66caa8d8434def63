package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.OrdersStorage = (*OrdersRepository)(nil)

type shippingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

func (r OrdersRepository) StoreOrder(ctx context.Context, o domain.Order) error {
	const op = "OrdersRepository.StoreOrder"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	linesB, err := cart.Marshal(domain.Cart{Lines: o.Lines})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	shippingB, err := json.Marshal(shippingInfo(o.Shipping))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO orders (
			order_id, user_id, lines, total, shipping, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err = r.sqldb.ExecContext(ctx, query,
		o.OrderID, o.UserID, string(linesB), o.Total, string(shippingB), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

// ReadOrders returns the user orders from oldest to newest.
func (r OrdersRepository) ReadOrders(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "OrdersRepository.ReadOrders"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT order_id, user_id, lines, total, shipping, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at ASC, order_id ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query: %w", op, err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var (
			o                 domain.Order
			linesS, shippingS string
			createdAt         time.Time
		)
		err := rows.Scan(&o.OrderID, &o.UserID, &linesS, &o.Total, &shippingS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		c, err := cart.Unmarshal([]byte(linesS))
		if err != nil {
			return nil, fmt.Errorf("%s: order %s: %w", op, o.OrderID, err)
		}
		o.Lines = c.Lines

		var si shippingInfo
		if err := json.Unmarshal([]byte(shippingS), &si); err != nil {
			return nil, fmt.Errorf("%s: order %s: %w", op, o.OrderID, err)
		}
		o.Shipping = domain.ShippingInfo(si)
		o.CreatedAt = createdAt.UTC()

		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}
