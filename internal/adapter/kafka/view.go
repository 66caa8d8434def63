package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.OrdersReader = (*OrderHistoryView)(nil)

type tableView interface {
	Run(ctx context.Context) error
	Get(key string) (any, error)
	Recovered() bool
}

// An OrderHistoryView serves order history from the local copy
// of the processor group table.
type OrderHistoryView struct {
	gv tableView
}

func NewOrderHistoryView(
	seedBrokers []string, groupTable string, opts ...goka.ViewOption,
) (*OrderHistoryView, error) {
	const op = "NewOrderHistoryView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(groupTable)),
		orderHistoryCodec{},
		opts...,
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &OrderHistoryView{gv}, nil
}

func (v *OrderHistoryView) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "OrderHistoryView.Run"
	log := slog.With("op", op)

	go func() {
		defer wg.Done()
		defer stopFn()

		log.Info("running")
		if err := v.gv.Run(ctx); err != nil {
			log.Error("unexpected fail on run", "err", err)
			return
		}
		log.Info("stopped")
	}()
}

// ReadOrders fails with [domain.ErrUnavailable] until the view
// has recovered the table.
func (v *OrderHistoryView) ReadOrders(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "OrderHistoryView.ReadOrders"

	if err := ctx.Err(); err != nil {
		return nil, opErr(err, op)
	}

	if !v.gv.Recovered() {
		return nil, opErr(fmt.Errorf("view is recovering: %w", domain.ErrUnavailable), op)
	}

	value, err := v.gv.Get(userID)
	if err != nil {
		return nil, opErr(fmt.Errorf("%w: %w", domain.ErrUnavailable, err), op)
	}

	if value == nil {
		return []domain.Order{}, nil
	}

	history, ok := value.([]schema.OrderV1)
	if !ok {
		return nil, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}

	orders := make([]domain.Order, len(history))
	for i, s := range history {
		orders[i] = orderFromSchemaV1(s)
	}
	return orders, nil
}
