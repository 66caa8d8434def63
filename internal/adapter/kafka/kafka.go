// Package kafka publishes order events and keeps the per-user order
// history table built from them.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to the brokers. tlsConfig may be nil.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kOpts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		if tlsConfig != nil {
			kOpts = append(kOpts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kOpts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerClientInstanceOpt uses an already constructed client.
func ProducerClientInstanceOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// UseTLS makes goka processors and views dial brokers over TLS.
func UseTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func orderToSchemaV1(v domain.Order) (s schema.OrderV1) {
	s.OrderID = v.OrderID
	s.UserID = v.UserID
	s.Total = v.Total
	s.CreatedAt = v.CreatedAt
	s.Shipping = schema.ShippingInfoV1(v.Shipping)

	s.Lines = make([]schema.OrderLineV1, len(v.Lines))
	for i, l := range v.Lines {
		s.Lines[i] = schema.OrderLineV1{
			Product: schema.OrderProductV1{
				ProductID:     l.Product.ProductID,
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
	return
}

func orderFromSchemaV1(s schema.OrderV1) (v domain.Order) {
	v.OrderID = s.OrderID
	v.UserID = s.UserID
	v.Total = s.Total
	v.CreatedAt = s.CreatedAt.UTC()
	v.Shipping = domain.ShippingInfo(s.Shipping)

	v.Lines = make([]domain.CartLine, len(s.Lines))
	for i, l := range s.Lines {
		v.Lines[i] = domain.CartLine{
			Product: domain.Product{
				ProductID:     l.Product.ProductID,
				Name:          l.Product.Name,
				Price:         l.Product.Price,
				Category:      domain.Category(l.Product.Category),
				Image:         l.Product.Image,
				Description:   l.Product.Description,
				Stock:         l.Product.Stock,
				OriginalPrice: l.Product.OriginalPrice,
			},
			Quantity: l.Quantity,
		}
	}
	return
}
