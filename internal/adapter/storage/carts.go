package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.CartSnapshotStorage = (*CartsRepository)(nil)

type (
	cartItemRow struct {
		ProductID      string             `json:"product_id"`
		Name           string             `json:"name"`
		Price          decimal.Decimal    `json:"price"`
		ImageRef       string             `json:"image_ref"`
		Quantity       int                `json:"quantity"`
		Customizations []customizationRow `json:"customizations,omitempty"`
	}

	customizationRow struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Kind  string          `json:"kind"`
	}
)

type CartsRepository struct {
	sqldb sqldb
}

func NewCartsRepository(sqldb sqldb) CartsRepository {
	return CartsRepository{sqldb}
}

// StoreSnapshots upserts the carts in one transaction.
//
// A stored cart is replaced only by a snapshot with a greater version,
// so late or redelivered snapshots never roll a cart back.
func (r CartsRepository) StoreSnapshots(
	ctx context.Context, vs []domain.CartSnapshot,
) (storeErr error) {
	const op = "CartsRepository.StoreSnapshots"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(vs) == 0 {
		return nil
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer finishTx(tx, op, log, &storeErr)

	query := `
		INSERT INTO carts (user_id, version, items, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			version = EXCLUDED.version,
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at
		WHERE carts.version < EXCLUDED.version;
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, v := range vs {
		if v.Cart.Version > math.MaxInt64 {
			return fmt.Errorf(
				"%s: %w: version overflow for %q",
				op, domain.ErrInvalidArgument, v.UserID,
			)
		}
		itemsB, err := json.Marshal(toCartItemRows(v.Cart.Items))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		_, err = stmt.ExecContext(ctx,
			v.UserID, int64(v.Cart.Version), string(itemsB),
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	log.Debug("snapshots stored", "count", len(vs))
	return nil
}

func (r CartsRepository) LoadSnapshot(
	ctx context.Context, userID string,
) (domain.CartSnapshot, error) {
	const op = "CartsRepository.LoadSnapshot"

	if err := ctx.Err(); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT version, items FROM carts WHERE user_id = $1;`

	var (
		version int64
		itemsS  string
	)
	err := r.sqldb.QueryRowContext(ctx, query, userID).Scan(&version, &itemsS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartSnapshot{}, fmt.Errorf(
				"%s: cart of %q: %w", op, userID, domain.ErrNotFound,
			)
		}
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	var rows []cartItemRow
	if err := json.Unmarshal([]byte(itemsS), &rows); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	c := domain.Cart{
		Items:      fromCartItemRows(rows),
		TotalPrice: decimal.Zero,
		Version:    uint64(max(version, 0)),
	}
	for _, v := range c.Items {
		c.TotalItems += v.Quantity
		c.TotalPrice = c.TotalPrice.Add(v.LineTotal())
	}
	return domain.CartSnapshot{UserID: userID, Cart: c}, nil
}

func toCartItemRows(vs []domain.CartItem) []cartItemRow {
	rows := make([]cartItemRow, len(vs))
	for i, v := range vs {
		rows[i] = cartItemRow{
			ProductID: v.ProductID,
			Name:      v.Name,
			Price:     v.Price,
			ImageRef:  v.ImageRef,
			Quantity:  v.Quantity,
		}
		for _, c := range v.Customizations {
			rows[i].Customizations = append(rows[i].Customizations,
				customizationRow{
					ID:    c.ID,
					Name:  c.Name,
					Price: c.Price,
					Kind:  string(c.Kind),
				},
			)
		}
	}
	return rows
}

func fromCartItemRows(rows []cartItemRow) []domain.CartItem {
	vs := make([]domain.CartItem, len(rows))
	for i, r := range rows {
		vs[i] = domain.CartItem{
			ProductID: r.ProductID,
			Name:      r.Name,
			Price:     r.Price,
			ImageRef:  r.ImageRef,
			Quantity:  r.Quantity,
		}
		for _, c := range r.Customizations {
			vs[i].Customizations = append(vs[i].Customizations,
				domain.Customization{
					ID:    c.ID,
					Name:  c.Name,
					Price: c.Price,
					Kind:  domain.CustomizationKind(c.Kind),
				},
			)
		}
	}
	return vs
}
