package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CartEventsProducer = (*CartEventsProducer)(nil)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt creates [kgo.Client] producing to the topic
// and checks brokers are reachable.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, extra ...kgo.Opt,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		cl, err := kgo.NewClient(append(kopts, extra...)...)
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

// ProducerWithClientOpt sets already created client.
func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
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

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CartEventsProducer produces [domain.CartEvent] keyed by the user id,
// so events of one cart keep their order within a partition.
type CartEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCartEventsProducer(
	opts ...ProducerOpt,
) (CartEventsProducer, error) {
	const op = "NewCartEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CartEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CartEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CartEventsProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CartEventsProducer) Close() {
	p.producer.close()
}

func (p CartEventsProducer) ProduceCartEvent(
	ctx context.Context, v domain.CartEvent,
) error {
	const op = "ProduceCartEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(v)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func (p CartEventsProducer) createRecord(
	v domain.CartEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := cartEventToSchemaV1(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.UserID), Value: b}, nil
}
