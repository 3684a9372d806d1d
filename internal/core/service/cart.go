package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/foodex/internal/core/cart"
	"github.com/niksmo/foodex/internal/core/domain"
)

const publishTimeout = 5 * time.Second

type qtyChangeFn func(*cart.Store, string, []domain.Customization) bool

func (s Service) AddToCart(
	ctx context.Context, userID string, req domain.AddToCart,
) (domain.Cart, error) {
	const op = "Service.AddToCart"

	if err := s.checkCall(ctx, userID); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := req.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	candidate, err := s.candidate(ctx, req)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.store(ctx, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := store.AddUnits(candidate, req.Units())
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s Service) IncreaseQty(
	ctx context.Context, userID string, ref domain.CartItemRef,
) (domain.Cart, bool, error) {
	const op = "Service.IncreaseQty"
	return s.changeQty(ctx, op, userID, ref, (*cart.Store).IncreaseQty)
}

func (s Service) DecreaseQty(
	ctx context.Context, userID string, ref domain.CartItemRef,
) (domain.Cart, bool, error) {
	const op = "Service.DecreaseQty"
	return s.changeQty(ctx, op, userID, ref, (*cart.Store).DecreaseQty)
}

func (s Service) RemoveItem(
	ctx context.Context, userID string, ref domain.CartItemRef,
) (domain.Cart, bool, error) {
	const op = "Service.RemoveItem"
	return s.changeQty(ctx, op, userID, ref, (*cart.Store).RemoveItem)
}

func (s Service) ClearCart(
	ctx context.Context, userID string,
) (domain.Cart, error) {
	const op = "Service.ClearCart"

	if err := s.checkCall(ctx, userID); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.store(ctx, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	store.ClearCart()
	return store.Snapshot(), nil
}

// Summary returns the user cart with its order summary.
func (s Service) Summary(
	ctx context.Context, userID string,
) (domain.Cart, domain.OrderSummary, error) {
	const op = "Service.Summary"

	if err := s.checkCall(ctx, userID); err != nil {
		return domain.Cart{}, domain.OrderSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.store(ctx, userID)
	if err != nil {
		return domain.Cart{}, domain.OrderSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	c := store.Snapshot()
	return c, s.pricing.Summarize(c), nil
}

func (s Service) changeQty(
	ctx context.Context,
	op string,
	userID string,
	ref domain.CartItemRef,
	fn qtyChangeFn,
) (domain.Cart, bool, error) {
	if err := s.checkCall(ctx, userID); err != nil {
		return domain.Cart{}, false, fmt.Errorf("%s: %w", op, err)
	}

	if ref.ProductID == "" {
		err := fmt.Errorf("%w: empty product id", domain.ErrInvalidArgument)
		return domain.Cart{}, false, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.store(ctx, userID)
	if err != nil {
		return domain.Cart{}, false, fmt.Errorf("%s: %w", op, err)
	}

	applied := fn(store, ref.ProductID, ref.Customizations())
	if !applied {
		slog.Debug("no matching cart item", "op", op, "productID", ref.ProductID)
	}
	return store.Snapshot(), applied, nil
}

func (s Service) candidate(
	ctx context.Context, req domain.AddToCart,
) (domain.CartItem, error) {
	m, err := s.catalog.MenuItem(ctx, req.ProductID)
	if err != nil {
		return domain.CartItem{}, err
	}

	var cs []domain.Customization
	if len(req.CustomizationIDs) != 0 {
		cs, err = s.catalog.Customizations(ctx, req.ProductID, req.CustomizationIDs)
		if err != nil {
			return domain.CartItem{}, err
		}
	}

	return domain.NewCartItem(m, cs)
}

func (s Service) store(ctx context.Context, userID string) (*cart.Store, error) {
	return s.carts.Acquire(ctx, userID, s.hydrate)
}

// hydrate restores the persisted cart of the user into a new store
// and subscribes the events producer to its changes.
//
// The restored version is floored by the clock in microseconds, so
// changes made after a restart outrank events of the previous process
// still waiting to be persisted.
func (s Service) hydrate(ctx context.Context, userID string, store *cart.Store) error {
	const op = "Service.hydrate"

	restored := domain.Cart{}
	if s.snapshots != nil {
		snapshot, err := s.snapshots.LoadSnapshot(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return fmt.Errorf("%s: %w", op, err)
		default:
			restored = snapshot.Cart
		}
	}

	floor := uint64(max(s.now().UnixMicro(), 0))
	restored.Version = max(restored.Version, floor)

	if err := store.Restore(restored); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.carts.MarkPersisted(userID, store.Version())

	if s.events != nil {
		store.Subscribe(func(c cart.Change) {
			s.publish(userID, c)
		})
	}

	slog.Debug(
		"cart hydrated", "op", op,
		"userID", userID, "items", len(restored.Items),
		"version", store.Version(),
	)
	return nil
}

// publish sends the change to the cart activity stream.
//
// The in-memory cart is authoritative, so failures are only logged.
// The change is already applied, so it is sent regardless of the
// request ctx.
func (s Service) publish(userID string, c cart.Change) {
	const op = "Service.publish"

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	evt := domain.CartEvent{
		UserID:     userID,
		Action:     c.Action,
		ProductID:  c.ProductID,
		Delta:      c.Delta,
		Cart:       c.Cart,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.ProduceCartEvent(ctx, evt); err != nil {
		slog.Error(
			"failed to produce cart event", "op", op,
			"userID", userID, "action", evt.Action, "err", err,
		)
	}
}

func (Service) checkCall(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("%w: no cart owner", domain.ErrUnauthorized)
	}
	return nil
}
