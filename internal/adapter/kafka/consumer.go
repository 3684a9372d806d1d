package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"github.com/niksmo/foodex/pkg/retry"
	"github.com/niksmo/foodex/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	slowDownTimeout = 1 * time.Second
	saveAttempts    = 3
	saveDelay       = 200 * time.Millisecond
	saveMaxDelay    = 2 * time.Second
)

////////////////////////////////////////////////////////
///////////////           OPTS            //////////////
////////////////////////////////////////////////////////

type ConsumerOpt func(*consumerOpts) error

func ConsumerClientOpt(
	seedBrokers []string, topic, group string, extra ...kgo.Opt,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		}
		cl, err := kgo.NewClient(append(kopts, extra...)...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

// ConsumerWithClientOpt sets already created client.
func ConsumerWithClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(co *consumerOpts) error {
		if cl == nil {
			return errors.New("consumer client is nil")
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func CartSnapshotSaverOpt(s port.CartSnapshotSaver) ConsumerOpt {
	return func(co *consumerOpts) error {
		if s == nil {
			return errors.New("cart snapshot saver is nil")
		}
		co.snapshotSaver = s
		return nil
	}
}

type consumerOpts struct {
	cl            ConsumerClient
	decoder       Decoder
	snapshotSaver port.CartSnapshotSaver
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	return nil
}

////////////////////////////////////////////////////////
////////////           CONSUMERS            ////////////
////////////////////////////////////////////////////////

// A consumer is used for composition.
//
// Fetching records from kafka broker and closing underlying [kgo.Client].

type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

type consumer struct {
	opPrefix      string
	parent        consumerParent
	cl            ConsumerClient
	slowDownTimer *time.Timer
}

func (c consumer) run(ctx context.Context) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.slowDown(ctx)
			}
		}
	}
}

func (c consumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	err = c.parent.processFetches(ctx, fetches)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.commit(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c consumer) slowDown(ctx context.Context) {
	c.slowDownTimer.Reset(slowDownTimeout)
	select {
	case <-ctx.Done():
	case <-c.slowDownTimer.C:
	}
}

func (c consumer) commit(ctx context.Context) error {
	const op = "commit"

	err := ctx.Err()
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.cl.CommitUncommittedOffsets(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowDownTimer.Stop()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

// A CartSnapshotsConsumer consumes cart events
// then sends the latest cart of every user to the core service for save.
type CartSnapshotsConsumer struct {
	opPrefix string
	consumer consumer
	saver    port.CartSnapshotSaver
	decoder  Decoder
}

func NewCartSnapshotsConsumer(
	opts ...ConsumerOpt,
) (c CartSnapshotsConsumer, err error) {
	const op = "NewCartSnapshotsConsumer"

	if len(opts) != 3 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return c, opErr(err, op)
	}

	opPrefix := "CartSnapshotsConsumer"

	c.opPrefix = opPrefix
	c.saver = options.snapshotSaver
	c.decoder = options.decoder

	c.consumer = consumer{
		opPrefix:      opPrefix,
		parent:        c,
		cl:            options.cl,
		slowDownTimer: time.NewTimer(0),
	}

	return c, nil
}

func (c CartSnapshotsConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c CartSnapshotsConsumer) Close() {
	c.consumer.close()
}

func (c CartSnapshotsConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	values := c.toDomain(fetches)
	if len(values) == 0 {
		return nil
	}

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: saveAttempts,
		Backoff:     retry.ExponentialBackoff(saveDelay, saveMaxDelay),
		ShouldRetry: func(err error) bool {
			return !errors.Is(err, context.Canceled) &&
				!errors.Is(err, domain.ErrInvalidArgument)
		},
	}, func() error {
		return c.saver.SaveCartSnapshots(ctx, values)
	})
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

// toDomain keeps the snapshot with the greatest version per user
// in the order users first appear in fetches.
func (c CartSnapshotsConsumer) toDomain(
	fetches kgo.Fetches,
) (vs []domain.CartSnapshot) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	index := make(map[string]int)
	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"failed to decode value",
				"err", opErr(err, c.opPrefix, op),
				"partition", r.Partition, "offset", r.Offset,
			)
			return
		}

		i, ok := index[v.UserID]
		if !ok {
			index[v.UserID] = len(vs)
			vs = append(vs, v)
			return
		}
		if v.Cart.Version > vs[i].Cart.Version {
			vs[i] = v
		}
	})
	return vs
}

func (c CartSnapshotsConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.CartSnapshot, error) {
	var s schema.CartEventV1
	err := c.decoder.Decode(r.Value, &s)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	evt, err := schemaV1ToCartEvent(s)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	if evt.UserID == "" {
		return domain.CartSnapshot{}, fmt.Errorf(
			"%w: event without user id", domain.ErrInvalidArgument,
		)
	}
	return domain.CartSnapshot{UserID: evt.UserID, Cart: evt.Cart}, nil
}
