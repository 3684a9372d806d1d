package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const AllCategories = "all"

type (
	MenuItem struct {
		ID          string
		Name        string
		Description string
		Price       decimal.Decimal
		ImageRef    string
		Category    string
		Rating      *float64
		Calories    *int
		Protein     *int
	}

	Category struct {
		ID          string
		Name        string
		Description string
	}

	// A MenuFilter narrows the menu by category name and free-text query.
	MenuFilter struct {
		Category string
		Query    string
	}

	// A PopularMenuItem is a menu item with the number of units
	// shoppers added to their carts.
	PopularMenuItem struct {
		MenuItem
		Added int64
	}
)

// HasCategory reports whether the filter restricts the category.
func (f MenuFilter) HasCategory() bool {
	c := strings.TrimSpace(f.Category)
	return c != "" && !strings.EqualFold(c, AllCategories)
}
