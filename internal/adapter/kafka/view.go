package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/foodex/internal/core/port"
)

var _ port.PopularityReader = (*PopularityView)(nil)

type tableGetter interface {
	Get(key string) (any, error)
}

// A PopularityView reads counters of [PopularityProcessor] group table.
type PopularityView struct {
	gv    *goka.View
	table tableGetter
}

func NewPopularityView(
	seedBrokers []string, group string, opts ...goka.ViewOption,
) (PopularityView, error) {
	const op = "NewPopularityView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		new(codec.Int64),
		opts...,
	)
	if err != nil {
		return PopularityView{}, opErr(err, op)
	}

	return PopularityView{gv: gv, table: gv}, nil
}

func (v PopularityView) Run(ctx context.Context) {
	const op = "PopularityView.Run"
	log := slog.With("op", op)

	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
	}
}

// AddedCount returns units of the product added to carts,
// zero for products nobody added.
func (v PopularityView) AddedCount(productID string) (int64, error) {
	const op = "PopularityView.AddedCount"

	value, err := v.table.Get(productID)
	if err != nil {
		return 0, opErr(err, op)
	}

	if value == nil {
		return 0, nil
	}

	count, ok := value.(int64)
	if !ok {
		return 0, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}
	return count, nil
}
