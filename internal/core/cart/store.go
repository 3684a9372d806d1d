package cart

import (
	"fmt"
	"slices"
	"sync"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/shopspring/decimal"
)

// A Change describes one applied mutation of the store.
type Change struct {
	Action    domain.CartAction
	ProductID string
	Delta     int
	Cart      domain.Cart
}

// An Observer receives every applied change with the cart right after it.
//
// Observers are called outside the store lock in the mutating goroutine.
type Observer func(Change)

// A Store is the sole owner of one cart content.
//
// Every method is safe for concurrent use. Lookups match entries by
// [domain.Identity], so customizations are compared as a set of ids.
type Store struct {
	mu        sync.Mutex
	items     []domain.CartItem
	version   uint64
	observers []Observer
}

func NewStore() *Store {
	return &Store{}
}

// AddItem adds one unit of the candidate.
//
// Candidate quantity is ignored. A matching entry gets its quantity
// increased, otherwise the candidate is appended with quantity 1.
// The only failure is a candidate that breaks construction preconditions.
func (s *Store) AddItem(candidate domain.CartItem) error {
	const op = "Store.AddItem"

	if _, err := s.AddUnits(candidate, 1); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddUnits adds n units of the candidate as one change
// and returns the cart right after it.
func (s *Store) AddUnits(candidate domain.CartItem, n int) (domain.Cart, error) {
	const op = "Store.AddUnits"

	if err := candidate.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	if n < 1 {
		return domain.Cart{}, fmt.Errorf(
			"%s: %w: %d units", op, domain.ErrInvalidArgument, n,
		)
	}

	v := candidate.Clone()
	v.Customizations = domain.NormalizeCustomizations(v.Customizations)
	v.Quantity = n
	id := v.Identity()

	c, _ := s.mutate(func() (Change, bool) {
		if i := s.indexOf(id); i != -1 {
			s.items[i].Quantity += n
		} else {
			s.items = append(s.items, v)
		}
		return Change{
			Action: domain.CartActionAdd, ProductID: v.ProductID, Delta: n,
		}, true
	})
	return c, nil
}

// IncreaseQty adds one unit to the matching entry.
//
// Reports false and leaves the cart untouched when nothing matches.
func (s *Store) IncreaseQty(
	productID string, customizations []domain.Customization,
) bool {
	id := domain.IdentityOf(productID, customizations)
	_, ok := s.mutate(func() (Change, bool) {
		i := s.indexOf(id)
		if i == -1 {
			return Change{}, false
		}
		s.items[i].Quantity++
		return Change{
			Action: domain.CartActionIncrease, ProductID: productID, Delta: 1,
		}, true
	})
	return ok
}

// DecreaseQty takes one unit from the matching entry,
// the entry is removed when its last unit goes.
//
// Reports false and leaves the cart untouched when nothing matches.
func (s *Store) DecreaseQty(
	productID string, customizations []domain.Customization,
) bool {
	id := domain.IdentityOf(productID, customizations)
	_, ok := s.mutate(func() (Change, bool) {
		i := s.indexOf(id)
		if i == -1 {
			return Change{}, false
		}
		if s.items[i].Quantity > 1 {
			s.items[i].Quantity--
		} else {
			s.deleteAt(i)
		}
		return Change{
			Action: domain.CartActionDecrease, ProductID: productID, Delta: -1,
		}, true
	})
	return ok
}

// RemoveItem removes the matching entry regardless of its quantity.
//
// Reports false and leaves the cart untouched when nothing matches.
func (s *Store) RemoveItem(
	productID string, customizations []domain.Customization,
) bool {
	id := domain.IdentityOf(productID, customizations)
	_, ok := s.mutate(func() (Change, bool) {
		i := s.indexOf(id)
		if i == -1 {
			return Change{}, false
		}
		s.deleteAt(i)
		return Change{Action: domain.CartActionRemove, ProductID: productID}, true
	})
	return ok
}

func (s *Store) ClearCart() {
	s.mutate(func() (Change, bool) {
		s.items = nil
		return Change{Action: domain.CartActionClear}, true
	})
}

// Restore replaces the content with the persisted cart.
//
// Entries are validated, entries without units are dropped and
// entries of equal identity are merged in order of first appearance.
// The version moves past both the current and the persisted one.
// Observers are not notified, a restored cart is not a change.
func (s *Store) Restore(c domain.Cart) error {
	const op = "Store.Restore"

	items := make([]domain.CartItem, 0, len(c.Items))
	index := make(map[domain.Identity]int, len(c.Items))
	for _, v := range c.Items {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if v.Quantity == 0 {
			continue
		}
		v = v.Clone()
		v.Customizations = domain.NormalizeCustomizations(v.Customizations)
		id := v.Identity()
		if i, ok := index[id]; ok {
			items[i].Quantity += v.Quantity
			continue
		}
		index[id] = len(items)
		items = append(items, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.version = max(s.version, c.Version) + 1
	return nil
}

// TotalItems returns the sum of quantities of all entries.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems()
}

// TotalPrice returns the sum of line totals of all entries.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPrice()
}

// Items returns a copy of the entries in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneItems()
}

func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Version returns the number of the last applied change.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers the observer for the store lifetime.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// mutate applies fn under the lock and returns the cart after it.
// Observers are notified when fn reports a change.
func (s *Store) mutate(fn func() (Change, bool)) (domain.Cart, bool) {
	s.mu.Lock()
	change, changed := fn()
	if !changed {
		c := s.snapshot()
		s.mu.Unlock()
		return c, false
	}
	s.version++
	change.Cart = s.snapshot()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o(change)
	}
	return change.Cart, true
}

func (s *Store) indexOf(id domain.Identity) int {
	for i := range s.items {
		if s.items[i].Identity() == id {
			return i
		}
	}
	return -1
}

func (s *Store) deleteAt(i int) {
	s.items = slices.Delete(s.items, i, i+1)
}

func (s *Store) snapshot() domain.Cart {
	return domain.Cart{
		Items:      s.cloneItems(),
		TotalItems: s.totalItems(),
		TotalPrice: s.totalPrice(),
		Version:    s.version,
	}
}

func (s *Store) cloneItems() []domain.CartItem {
	items := make([]domain.CartItem, len(s.items))
	for i := range s.items {
		items[i] = s.items[i].Clone()
	}
	return items
}

func (s *Store) totalItems() int {
	var n int
	for _, v := range s.items {
		n += v.Quantity
	}
	return n
}

func (s *Store) totalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.items {
		total = total.Add(v.LineTotal())
	}
	return total
}
