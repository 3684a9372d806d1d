package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type CustomizationKind string

const (
	KindTopping CustomizationKind = "topping"
	KindSide    CustomizationKind = "side"
)

type (
	// A Customization is an add-on attached to a cart line.
	Customization struct {
		ID    string
		Name  string
		Price decimal.Decimal
		Kind  CustomizationKind
	}

	// A CartItem is one distinct purchasable configuration in the cart.
	//
	// Price is the base product price without customizations.
	CartItem struct {
		ProductID      string
		Name           string
		Price          decimal.Decimal
		ImageRef       string
		Customizations []Customization
		Quantity       int
	}

	// A Cart is an immutable snapshot of the cart content.
	Cart struct {
		Items      []CartItem
		TotalItems int
		TotalPrice decimal.Decimal
		Version    uint64
	}
)

// An Identity decides whether two cart additions merge into one line.
type Identity struct {
	ProductID string
	key       string
}

const (
	customizationKeySep = "\x1f"

	// MaxUnitsPerAdd limits units requested by a single add.
	MaxUnitsPerAdd = 99
)

// IdentityOf returns the identity of product with the given customizations.
//
// Customizations are compared as a set of ids: order and duplicates
// do not change the identity.
func IdentityOf(productID string, cs []Customization) Identity {
	ids := make([]string, len(cs))
	for i := range cs {
		ids[i] = cs[i].ID
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return Identity{ProductID: productID, key: strings.Join(ids, customizationKeySep)}
}

// NormalizeCustomizations returns a copy of cs sorted by id,
// only the first customization of each id is kept.
//
// Line items hold normalized customizations, so the unit price
// counts every customization of the identity exactly once.
func NormalizeCustomizations(cs []Customization) []Customization {
	if len(cs) == 0 {
		return nil
	}
	vs := slices.Clone(cs)
	slices.SortStableFunc(vs, func(a, b Customization) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return slices.CompactFunc(vs, func(a, b Customization) bool {
		return a.ID == b.ID
	})
}

// CustomizationsFromIDs returns id-only customizations usable for lookups.
func CustomizationsFromIDs(ids []string) []Customization {
	cs := make([]Customization, len(ids))
	for i, id := range ids {
		cs[i].ID = id
	}
	return cs
}

func NewCustomization(
	id, name string, price decimal.Decimal, kind CustomizationKind,
) (Customization, error) {
	c := Customization{ID: id, Name: name, Price: price, Kind: kind}
	if err := c.Validate(); err != nil {
		return Customization{}, err
	}
	return c, nil
}

func (c Customization) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty customization id", ErrInvalidArgument)
	}
	if c.Price.IsNegative() {
		return fmt.Errorf(
			"%w: negative price of customization %q", ErrInvalidArgument, c.ID,
		)
	}
	return nil
}

// NewCartItem builds an add candidate for the menu item.
//
// Quantity of the candidate is 1, customizations are normalized.
func NewCartItem(m MenuItem, cs []Customization) (CartItem, error) {
	v := CartItem{
		ProductID:      m.ID,
		Name:           m.Name,
		Price:          m.Price,
		ImageRef:       m.ImageRef,
		Customizations: NormalizeCustomizations(cs),
		Quantity:       1,
	}
	if err := v.Validate(); err != nil {
		return CartItem{}, err
	}
	return v, nil
}

// Validate checks the construction preconditions of the item.
//
// Quantity is checked only when it is set explicitly.
func (v CartItem) Validate() error {
	if v.ProductID == "" {
		return fmt.Errorf("%w: empty product id", ErrInvalidArgument)
	}
	if v.Price.IsNegative() {
		return fmt.Errorf(
			"%w: negative price of product %q", ErrInvalidArgument, v.ProductID,
		)
	}
	if v.Quantity < 0 {
		return fmt.Errorf(
			"%w: negative quantity of product %q",
			ErrInvalidArgument, v.ProductID,
		)
	}
	for _, c := range v.Customizations {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (v CartItem) Identity() Identity {
	return IdentityOf(v.ProductID, v.Customizations)
}

// UnitPrice returns base price plus all customization prices.
func (v CartItem) UnitPrice() decimal.Decimal {
	p := v.Price
	for _, c := range v.Customizations {
		p = p.Add(c.Price)
	}
	return p
}

func (v CartItem) LineTotal() decimal.Decimal {
	return v.UnitPrice().Mul(decimal.NewFromInt(int64(v.Quantity)))
}

// Clone returns a deep copy of the item.
func (v CartItem) Clone() CartItem {
	v.Customizations = slices.Clone(v.Customizations)
	return v
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

type (
	// An AddToCart asks for units of a menu item
	// with the customizations selected by the shopper.
	AddToCart struct {
		ProductID        string
		CustomizationIDs []string
		Quantity         int
	}

	// A CartItemRef points to a cart line by its identity.
	CartItemRef struct {
		ProductID        string
		CustomizationIDs []string
	}
)

func (r AddToCart) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("%w: empty product id", ErrInvalidArgument)
	}
	if r.Quantity < 0 || r.Quantity > MaxUnitsPerAdd {
		return fmt.Errorf(
			"%w: quantity %d out of range [1, %d]",
			ErrInvalidArgument, r.Quantity, MaxUnitsPerAdd,
		)
	}
	return nil
}

// Units returns the requested number of units, one when unset.
func (r AddToCart) Units() int {
	return max(r.Quantity, 1)
}

func (r CartItemRef) Customizations() []Customization {
	return CustomizationsFromIDs(r.CustomizationIDs)
}
