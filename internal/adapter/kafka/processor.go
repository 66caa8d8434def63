package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.OrderHistoryProcessor = (*OrderHistoryProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An orderEventCodec used for serde [schema.OrderV1]
// framed by the schema registry.
type orderEventCodec struct {
	serde Serde
}

func newOrderEventCodec(s Serde) orderEventCodec {
	return orderEventCodec{s}
}

func (c orderEventCodec) Encode(v any) ([]byte, error) {
	const op = "orderEventCodec.Encode"
	if _, ok := v.(schema.OrderV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c orderEventCodec) Decode(data []byte) (any, error) {
	const op = "orderEventCodec.Decode"
	var s schema.OrderV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// An orderHistoryCodec used for serde the table value of [schema.OrderV1] list
type orderHistoryCodec struct{}

func (orderHistoryCodec) Encode(v any) ([]byte, error) {
	const op = "orderHistoryCodec.Encode"
	vs, ok := v.([]schema.OrderV1)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	data, err := schema.AvroEncodeFn(schema.OrderHistoryV1Avro())(vs)
	if err != nil {
		return nil, opErr(err, op)
	}
	return data, nil
}

func (orderHistoryCodec) Decode(data []byte) (any, error) {
	const op = "orderHistoryCodec.Decode"
	var vs []schema.OrderV1
	err := schema.AvroDecodeFn(schema.OrderHistoryV1Avro())(data, &vs)
	if err != nil {
		return nil, opErr(err, op)
	}
	return vs, nil
}

// An OrderHistoryProcessor appends order events from the input stream
// to the order list of their user in the group table.
type OrderHistoryProcessor struct {
	opPrefix string
	proc     processor
}

func NewOrderHistoryProc(
	seedBrokers []string,
	inputStream string,
	groupTable string,
	orderSerde Serde,
	opts ...goka.ProcessorOption,
) (*OrderHistoryProcessor, error) {
	const op = "NewOrderHistoryProcessor"

	p := OrderHistoryProcessor{opPrefix: "OrderHistoryProcessor"}

	gg := goka.DefineGroup(goka.Group(groupTable),
		goka.Input(
			goka.Stream(inputStream),
			newOrderEventCodec(orderSerde),
			p.processFn,
		),
		goka.Persist(orderHistoryCodec{}),
	)

	opts = append([]goka.ProcessorOption{withNonlogProcOpt()}, opts...)
	gp, err := goka.NewProcessor(seedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *OrderHistoryProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *OrderHistoryProcessor) Close() {
	p.proc.close()
}

func (p *OrderHistoryProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "userID", ctx.Key())

	event, ok := msg.(schema.OrderV1)
	if !ok {
		log.Error("unexpected message type")
		return
	}

	history, _ := ctx.Value().([]schema.OrderV1)
	history, added := appendOrder(history, event)
	if !added {
		log.Warn("order is already in history", "orderID", event.OrderID)
		return
	}
	ctx.SetValue(history)
	log.Info("order appended to history", "orderID", event.OrderID)
}

// appendOrder skips orders already in history, so redelivered events
// do not duplicate history entries.
func appendOrder(
	history []schema.OrderV1, v schema.OrderV1,
) ([]schema.OrderV1, bool) {
	for _, o := range history {
		if o.OrderID == v.OrderID {
			return history, false
		}
	}
	return append(history, v), true
}
