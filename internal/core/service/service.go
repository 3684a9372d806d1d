package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/foodex/internal/core/cart"
	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
)

var _ port.CartManager = (*Service)(nil)
var _ port.MenuReader = (*Service)(nil)
var _ port.AccountManager = (*Service)(nil)
var _ port.CartSnapshotSaver = (*Service)(nil)

type Service struct {
	carts      *cart.Registry
	pricing    domain.Pricing
	catalog    port.Catalog
	accounts   port.Accounts
	events     port.CartEventsProducer
	snapshots  port.CartSnapshotStorage
	popularity port.PopularityReader
	now        func() time.Time
}

// New returns the core service.
//
// Events producer, snapshots storage and popularity reader are optional,
// the service works on in-memory carts without them.
func New(
	pricing domain.Pricing,
	catalog port.Catalog,
	accounts port.Accounts,
	events port.CartEventsProducer,
	snapshots port.CartSnapshotStorage,
	popularity port.PopularityReader,
) Service {
	return Service{
		carts:      cart.NewRegistry(),
		pricing:    pricing,
		catalog:    catalog,
		accounts:   accounts,
		events:     events,
		snapshots:  snapshots,
		popularity: popularity,
		now:        time.Now,
	}
}

func (s Service) SaveCartSnapshots(
	ctx context.Context, vs []domain.CartSnapshot,
) error {
	const op = "Service.SaveCartSnapshots"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.snapshots == nil {
		return nil
	}

	err := s.snapshots.StoreSnapshots(ctx, vs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, v := range vs {
		s.carts.MarkPersisted(v.UserID, v.Cart.Version)
	}
	return nil
}

// EvictIdleCarts drops in-memory carts not used for at least idle
// whose changes are all persisted, they are hydrated again on next use.
func (s Service) EvictIdleCarts(idle time.Duration) int {
	const op = "Service.EvictIdleCarts"

	n := s.carts.Evict(idle)
	if n != 0 {
		slog.Info(
			"idle carts evicted", "op", op,
			"evicted", n, "remaining", s.carts.Len(),
		)
	}
	return n
}

// RunCartEviction evicts idle carts every half of idle until ctx is done.
func (s Service) RunCartEviction(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(max(idle/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdleCarts(idle)
		}
	}
}
