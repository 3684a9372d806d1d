package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"github.com/niksmo/foodex/pkg/schema"
)

var _ port.PopularityProcessor = (*PopularityProcessor)(nil)

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
	const op = "runProc"
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
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A PopularityProcessor counts units added to carts per product.
//
// Cart events arrive keyed by the user, the units are looped back
// keyed by the product and summed in the group table.
type PopularityProcessor struct {
	opPrefix string
	proc     processor
}

func NewPopularityProc(
	seedBrokers []string,
	inputStream string,
	group string,
	cartEventSerde Serde,
	opts ...goka.ProcessorOption,
) (*PopularityProcessor, error) {
	const op = "NewPopularityProcessor"

	p := PopularityProcessor{opPrefix: "PopularityProcessor"}

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(
			goka.Stream(inputStream),
			newCartEventCodec(cartEventSerde),
			p.processFn,
		),
		goka.Loop(new(codec.Int64), p.countFn),
		goka.Persist(new(codec.Int64)),
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

func (p *PopularityProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *PopularityProcessor) Close() {
	p.proc.close()
}

// processFn re-keys added units by the product id.
func (p *PopularityProcessor) processFn(ctx goka.Context, msg any) {
	event, ok := msg.(schema.CartEventV1)
	if !ok {
		return
	}

	v := domain.CartEvent{
		Action:    domain.CartAction(event.Action),
		ProductID: event.ProductID,
		Delta:     event.Delta,
	}
	if !v.AddsUnits() || v.ProductID == "" {
		return
	}
	ctx.Loopback(v.ProductID, int64(v.Delta))
}

func (p *PopularityProcessor) countFn(ctx goka.Context, msg any) {
	const op = "countFn"

	delta, ok := msg.(int64)
	if !ok {
		slog.Error("unexpected loopback value",
			"op", makeOp(p.opPrefix, op), "key", ctx.Key(),
		)
		return
	}

	count, _ := ctx.Value().(int64)
	ctx.SetValue(count + delta)
}
