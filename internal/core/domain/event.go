package domain

import "time"

type CartAction string

const (
	CartActionAdd      CartAction = "add"
	CartActionIncrease CartAction = "increase"
	CartActionDecrease CartAction = "decrease"
	CartActionRemove   CartAction = "remove"
	CartActionClear    CartAction = "clear"
)

// A CartEvent describes one applied cart mutation
// together with the resulting cart.
type CartEvent struct {
	UserID     string
	Action     CartAction
	ProductID  string
	Delta      int
	Cart       Cart
	OccurredAt time.Time
}

// AddsUnits reports whether the event put new units into the cart.
func (e CartEvent) AddsUnits() bool {
	switch e.Action {
	case CartActionAdd, CartActionIncrease:
		return e.Delta > 0
	}
	return false
}

type CartSnapshot struct {
	UserID string
	Cart   Cart
}
