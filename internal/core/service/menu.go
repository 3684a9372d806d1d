package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/niksmo/foodex/internal/core/domain"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 50
)

func (s Service) Menu(
	ctx context.Context, f domain.MenuFilter,
) ([]domain.MenuItem, error) {
	const op = "Service.Menu"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs, err := s.catalog.ListMenu(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func (s Service) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "Service.Categories"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

// PopularMenu returns menu items ordered by the number of units
// shoppers added to their carts. Items nobody added are skipped.
func (s Service) PopularMenu(
	ctx context.Context, limit int,
) ([]domain.PopularMenuItem, error) {
	const op = "Service.PopularMenu"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.popularity == nil {
		return nil, nil
	}

	if limit <= 0 {
		limit = defaultPopularLimit
	}
	limit = min(limit, maxPopularLimit)

	menu, err := s.catalog.ListMenu(ctx, domain.MenuFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var vs []domain.PopularMenuItem
	for _, m := range menu {
		n, err := s.popularity.AddedCount(m.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if n == 0 {
			continue
		}
		vs = append(vs, domain.PopularMenuItem{MenuItem: m, Added: n})
	}

	slices.SortStableFunc(vs, func(a, b domain.PopularMenuItem) int {
		if c := cmp.Compare(b.Added, a.Added); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	if len(vs) > limit {
		vs = vs[:limit]
	}
	return vs, nil
}
