package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
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

// TLSOpts returns client options for the mutual TLS connection,
// nil config means plaintext.
func TLSOpts(cfg *tls.Config) []kgo.Opt {
	if cfg == nil {
		return nil
	}
	return []kgo.Opt{kgo.DialTLSConfig(cfg)}
}

// ApplyGokaTLS enables TLS for goka processors and views
// created after the call.
func ApplyGokaTLS(cfg *tls.Config) {
	if cfg == nil {
		return
	}
	gc := goka.DefaultConfig()
	gc.Net.TLS.Enable = true
	gc.Net.TLS.Config = cfg
	goka.ReplaceGlobalConfig(gc)
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

func cartEventToSchemaV1(v domain.CartEvent) (s schema.CartEventV1) {
	s.UserID = v.UserID
	s.Action = string(v.Action)
	s.ProductID = v.ProductID
	s.Delta = v.Delta
	s.Version = int64(v.Cart.Version)
	s.TotalItems = v.Cart.TotalItems
	s.TotalPrice = v.Cart.TotalPrice.String()
	s.OccurredAt = v.OccurredAt.UnixMilli()

	s.Items = make([]schema.CartItemV1, len(v.Cart.Items))
	for i, item := range v.Cart.Items {
		s.Items[i] = schema.CartItemV1{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.String(),
			ImageRef:  item.ImageRef,
			Quantity:  item.Quantity,
		}
		s.Items[i].Customizations = make(
			[]schema.CustomizationV1, len(item.Customizations),
		)
		for j, c := range item.Customizations {
			s.Items[i].Customizations[j] = schema.CustomizationV1{
				ID:    c.ID,
				Name:  c.Name,
				Price: c.Price.String(),
				Kind:  string(c.Kind),
			}
		}
	}
	return
}

func schemaV1ToCartEvent(s schema.CartEventV1) (domain.CartEvent, error) {
	const op = "schemaV1ToCartEvent"

	if s.Version < 0 {
		return domain.CartEvent{}, opErr(
			fmt.Errorf("%w: negative version", domain.ErrInvalidArgument), op,
		)
	}

	totalPrice, err := decimal.NewFromString(s.TotalPrice)
	if err != nil {
		return domain.CartEvent{}, opErr(err, op)
	}

	v := domain.CartEvent{
		UserID:    s.UserID,
		Action:    domain.CartAction(s.Action),
		ProductID: s.ProductID,
		Delta:     s.Delta,
		Cart: domain.Cart{
			Items:      make([]domain.CartItem, len(s.Items)),
			TotalItems: s.TotalItems,
			TotalPrice: totalPrice,
			Version:    uint64(s.Version),
		},
		OccurredAt: time.UnixMilli(s.OccurredAt).UTC(),
	}

	for i, item := range s.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return domain.CartEvent{}, opErr(err, op)
		}
		v.Cart.Items[i] = domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			ImageRef:  item.ImageRef,
			Quantity:  item.Quantity,
		}
		if len(item.Customizations) == 0 {
			continue
		}
		cs := make([]domain.Customization, len(item.Customizations))
		for j, c := range item.Customizations {
			price, err := decimal.NewFromString(c.Price)
			if err != nil {
				return domain.CartEvent{}, opErr(err, op)
			}
			cs[j] = domain.Customization{
				ID:    c.ID,
				Name:  c.Name,
				Price: price,
				Kind:  domain.CustomizationKind(c.Kind),
			}
		}
		v.Cart.Items[i].Customizations = cs
	}
	return v, nil
}

// A cartEventCodec used for serde [schema.CartEventV1] in goka groups.
type cartEventCodec struct {
	serde Serde
}

func newCartEventCodec(s Serde) cartEventCodec {
	return cartEventCodec{s}
}

func (c cartEventCodec) Encode(v any) ([]byte, error) {
	const op = "cartEventCodec.Encode"
	if _, ok := v.(schema.CartEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c cartEventCodec) Decode(data []byte) (any, error) {
	const op = "cartEventCodec.Decode"
	var s schema.CartEventV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}
