package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.Catalog = (*CatalogRepository)(nil)

const menuItemColumns = `
	m.item_id, m.name, m.description, m.price, m.image_ref,
	c.name, m.rating, m.calories, m.protein`

type CatalogRepository struct {
	sqldb sqldb
}

func NewCatalogRepository(sqldb sqldb) CatalogRepository {
	return CatalogRepository{sqldb}
}

// ListMenu returns menu items ordered by name.
//
// Category matches the category id or name ignoring case,
// query matches a part of the item name ignoring case.
func (r CatalogRepository) ListMenu(
	ctx context.Context, f domain.MenuFilter,
) ([]domain.MenuItem, error) {
	const op = "CatalogRepository.ListMenu"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		conds []string
		args  []any
	)
	if f.HasCategory() {
		args = append(args, strings.TrimSpace(f.Category))
		conds = append(conds, fmt.Sprintf(
			"(c.category_id = $%d OR lower(c.name) = lower($%d))",
			len(args), len(args),
		))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		conds = append(conds, fmt.Sprintf("m.name ILIKE $%d", len(args)))
	}

	query := `SELECT` + menuItemColumns + `
		FROM menu_items m
		JOIN categories c ON c.category_id = m.category_id`
	if len(conds) != 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY m.name ASC;"

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	var vs []domain.MenuItem
	for rows.Next() {
		v, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func (r CatalogRepository) ListCategories(
	ctx context.Context,
) ([]domain.Category, error) {
	const op = "CatalogRepository.ListCategories"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT category_id, name, description
		FROM categories
		ORDER BY name ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	var vs []domain.Category
	for rows.Next() {
		var v domain.Category
		if err := rows.Scan(&v.ID, &v.Name, &v.Description); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func (r CatalogRepository) MenuItem(
	ctx context.Context, id string,
) (domain.MenuItem, error) {
	const op = "CatalogRepository.MenuItem"

	if err := ctx.Err(); err != nil {
		return domain.MenuItem{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT` + menuItemColumns + `
		FROM menu_items m
		JOIN categories c ON c.category_id = m.category_id
		WHERE m.item_id = $1;`

	v, err := scanMenuItem(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MenuItem{}, fmt.Errorf(
				"%s: menu item %q: %w", op, id, domain.ErrNotFound,
			)
		}
		return domain.MenuItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// Customizations returns the customizations offered for the product
// in the order of ids, duplicates are dropped.
func (r CatalogRepository) Customizations(
	ctx context.Context, productID string, ids []string,
) ([]domain.Customization, error) {
	const op = "CatalogRepository.Customizations"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uniq := uniqueIDs(ids)
	if len(uniq) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.customization_id, c.name, c.price, c.kind
		FROM customizations c
		JOIN menu_item_customizations mc
			ON mc.customization_id = c.customization_id
		WHERE mc.item_id = $1 AND c.customization_id = ANY($2);`

	rows, err := r.sqldb.QueryContext(ctx, query, productID, uniq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	found := make(map[string]domain.Customization, len(uniq))
	for rows.Next() {
		var (
			id, name, kind string
			price          decimal.Decimal
		)
		if err := rows.Scan(&id, &name, &price, &kind); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		v, err := domain.NewCustomization(
			id, name, price, domain.CustomizationKind(kind),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		found[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.Customization, 0, len(uniq))
	for _, id := range uniq {
		v, ok := found[id]
		if !ok {
			return nil, fmt.Errorf(
				"%s: customization %q of %q: %w",
				op, id, productID, domain.ErrNotFound,
			)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(s scanner) (domain.MenuItem, error) {
	var (
		v        domain.MenuItem
		rating   sql.NullFloat64
		calories sql.NullInt32
		protein  sql.NullInt32
	)
	err := s.Scan(
		&v.ID, &v.Name, &v.Description, &v.Price, &v.ImageRef,
		&v.Category, &rating, &calories, &protein,
	)
	if err != nil {
		return domain.MenuItem{}, err
	}

	if rating.Valid {
		v.Rating = &rating.Float64
	}
	v.Calories = nullIntPtr(calories)
	v.Protein = nullIntPtr(protein)
	return v, nil
}

func nullIntPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

func uniqueIDs(ids []string) []string {
	vs := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(vs, id) {
			vs = append(vs, id)
		}
	}
	return vs
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
