package cart_test

import (
	"sync"
	"testing"

	"github.com/niksmo/foodex/internal/core/cart"
	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func customization(id, p string) domain.Customization {
	return domain.Customization{
		ID: id, Name: id, Price: price(p), Kind: domain.KindTopping,
	}
}

func candidate(id, p string, cs ...domain.Customization) domain.CartItem {
	return domain.CartItem{
		ProductID:      id,
		Name:           id,
		Price:          price(p),
		ImageRef:       id + "Image",
		Customizations: cs,
	}
}

func TestStoreAddItem(t *testing.T) {
	t.Run("SameIdentityMerges", func(t *testing.T) {
		s := cart.NewStore()
		cheese := customization("cheese", "0.50")

		for range 3 {
			require.NoError(t, s.AddItem(candidate("burger", "5.00", cheese)))
		}

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
		assert.Equal(t, 3, s.TotalItems())
	})

	t.Run("DifferentCustomizationsSplit", func(t *testing.T) {
		s := cart.NewStore()

		require.NoError(t, s.AddItem(candidate("burger", "5.00")))
		require.NoError(t, s.AddItem(
			candidate("burger", "5.00", customization("cheese", "0.50")),
		))

		items := s.Items()
		require.Len(t, items, 2)
		assert.Empty(t, items[0].Customizations)
		require.Len(t, items[1].Customizations, 1)
		assert.Equal(t, "cheese", items[1].Customizations[0].ID)
	})

	t.Run("CustomizationOrderIgnored", func(t *testing.T) {
		s := cart.NewStore()
		a := customization("a", "1.00")
		b := customization("b", "2.00")

		require.NoError(t, s.AddItem(candidate("pizza", "9.00", a, b)))
		require.NoError(t, s.AddItem(candidate("pizza", "9.00", b, a)))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, []string{"a", "b"}, customizationIDs(items[0]))
	})

	t.Run("CandidateQuantityIgnored", func(t *testing.T) {
		s := cart.NewStore()
		v := candidate("burger", "5.00")
		v.Quantity = 7

		require.NoError(t, s.AddItem(v))
		assert.Equal(t, 1, s.TotalItems())
	})

	t.Run("InvalidCandidate", func(t *testing.T) {
		s := cart.NewStore()

		tests := []struct {
			name string
			v    domain.CartItem
		}{
			{"EmptyProductID", candidate("", "1.00")},
			{"NegativePrice", candidate("burger", "-1.00")},
			{"NegativeCustomizationPrice", candidate(
				"burger", "1.00", customization("cheese", "-0.10"),
			)},
			{"EmptyCustomizationID", candidate(
				"burger", "1.00", customization("", "0.10"),
			)},
			{"NegativeQuantity", func() domain.CartItem {
				v := candidate("burger", "1.00")
				v.Quantity = -1
				return v
			}()},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := s.AddItem(tt.v)
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			})
		}
		assert.Empty(t, s.Items())
	})

	t.Run("DuplicateCustomizationsOrderIndependent", func(t *testing.T) {
		a := customization("a", "1.00")
		twice := candidate("pizza", "10.00", a, a)
		once := candidate("pizza", "10.00", a)

		s1 := cart.NewStore()
		require.NoError(t, s1.AddItem(twice))
		require.NoError(t, s1.AddItem(once))

		s2 := cart.NewStore()
		require.NoError(t, s2.AddItem(once))
		require.NoError(t, s2.AddItem(twice))

		require.Len(t, s1.Items(), 1)
		require.Len(t, s2.Items(), 1)
		assert.Equal(t, []string{"a"}, customizationIDs(s1.Items()[0]))
		assert.True(t, price("22.00").Equal(s1.TotalPrice()), s1.TotalPrice().String())
		assert.True(t, s1.TotalPrice().Equal(s2.TotalPrice()), s2.TotalPrice().String())
	})

	t.Run("CandidateNotAliased", func(t *testing.T) {
		s := cart.NewStore()
		cs := []domain.Customization{customization("cheese", "0.50")}

		require.NoError(t, s.AddItem(candidate("burger", "5.00", cs...)))
		cs[0].ID = "bacon"

		assert.Equal(t, []string{"cheese"}, customizationIDs(s.Items()[0]))
	})
}

func TestStoreAddUnits(t *testing.T) {
	t.Run("OneChange", func(t *testing.T) {
		s := cart.NewStore()
		var changes []cart.Change
		s.Subscribe(func(c cart.Change) { changes = append(changes, c) })

		c, err := s.AddUnits(candidate("burger", "5.00"), 3)
		require.NoError(t, err)
		assert.Equal(t, 3, c.TotalItems)
		assert.Equal(t, uint64(1), c.Version)
		assert.True(t, price("15.00").Equal(c.TotalPrice))

		require.Len(t, changes, 1)
		assert.Equal(t, 3, changes[0].Delta)
		assert.Equal(t, c, changes[0].Cart)
	})

	t.Run("MergesIntoEntry", func(t *testing.T) {
		s := cart.NewStore()
		require.NoError(t, s.AddItem(candidate("burger", "5.00")))

		c, err := s.AddUnits(candidate("burger", "5.00"), 2)
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 3, c.Items[0].Quantity)
	})

	t.Run("NoUnits", func(t *testing.T) {
		s := cart.NewStore()
		_, err := s.AddUnits(candidate("burger", "5.00"), 0)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Zero(t, s.Version())
	})

	t.Run("NeverPartiallyVisible", func(t *testing.T) {
		s := cart.NewStore()
		const units = 5

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = s.AddUnits(candidate("burger", "5.00"), units)
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Zero(t, s.TotalItems()%units)
			}
		}()
		wg.Wait()
		assert.Equal(t, 100*units, s.TotalItems())
	})
}

func TestStoreQuantity(t *testing.T) {
	cheese := customization("cheese", "0.50")
	bacon := customization("bacon", "1.00")

	t.Run("Increase", func(t *testing.T) {
		s := cart.NewStore()
		require.NoError(t, s.AddItem(candidate("burger", "5.00", cheese, bacon)))

		ok := s.IncreaseQty("burger", []domain.Customization{bacon, cheese})
		assert.True(t, ok)
		assert.Equal(t, 2, s.Items()[0].Quantity)
	})

	t.Run("IncreaseByIDsOnly", func(t *testing.T) {
		s := cart.NewStore()
		require.NoError(t, s.AddItem(candidate("burger", "5.00", cheese)))

		ok := s.IncreaseQty("burger", domain.CustomizationsFromIDs([]string{"cheese"}))
		assert.True(t, ok)
		assert.Equal(t, 2, s.TotalItems())
	})

	t.Run("DecreaseKeepsEntry", func(t *testing.T) {
		s := cart.NewStore()
		v := candidate("burger", "5.00")
		require.NoError(t, s.AddItem(v))
		require.NoError(t, s.AddItem(v))

		assert.True(t, s.DecreaseQty("burger", nil))
		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 1, items[0].Quantity)
	})

	t.Run("DecreaseLastUnitRemoves", func(t *testing.T) {
		s := cart.NewStore()
		require.NoError(t, s.AddItem(candidate("burger", "5.00")))
		require.NoError(t, s.AddItem(candidate("fries", "2.00")))

		assert.True(t, s.DecreaseQty("burger", nil))
		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "fries", items[0].ProductID)
		for _, v := range items {
			assert.Positive(t, v.Quantity)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s := cart.NewStore()
		v := candidate("burger", "5.00", cheese)
		for range 4 {
			require.NoError(t, s.AddItem(v))
		}
		require.NoError(t, s.AddItem(candidate("burger", "5.00")))

		assert.True(t, s.RemoveItem("burger", []domain.Customization{cheese}))
		items := s.Items()
		require.Len(t, items, 1)
		assert.Empty(t, items[0].Customizations)
	})
}

func TestStoreMissingIdentity(t *testing.T) {
	cheese := customization("cheese", "0.50")

	s := cart.NewStore()
	require.NoError(t, s.AddItem(candidate("burger", "5.00", cheese)))
	before := s.Snapshot()

	assert.False(t, s.IncreaseQty("burger", nil))
	assert.False(t, s.DecreaseQty("pizza", []domain.Customization{cheese}))
	assert.False(t, s.RemoveItem("burger", []domain.Customization{
		cheese, customization("bacon", "1.00"),
	}))

	assert.Equal(t, before, s.Snapshot())
}

func TestStoreTotals(t *testing.T) {
	s := cart.NewStore()
	burger := candidate("burger", "5.00",
		customization("cheese", "0.50"),
		customization("bacon", "1.00"),
	)
	require.NoError(t, s.AddItem(burger))
	require.NoError(t, s.AddItem(burger))
	require.NoError(t, s.AddItem(candidate("fries", "3.00")))

	assert.Equal(t, 3, s.TotalItems())
	assert.True(t, price("16.00").Equal(s.TotalPrice()), s.TotalPrice().String())

	s.ClearCart()
	assert.Zero(t, s.TotalItems())
	assert.True(t, s.TotalPrice().IsZero())
	assert.Empty(t, s.Items())
}

func TestStoreInsertionOrder(t *testing.T) {
	s := cart.NewStore()
	for _, id := range []string{"burger", "fries", "cola"} {
		require.NoError(t, s.AddItem(candidate(id, "1.00")))
	}

	require.True(t, s.RemoveItem("burger", nil))
	require.NoError(t, s.AddItem(candidate("burger", "1.00")))
	require.True(t, s.IncreaseQty("fries", nil))

	assert.Equal(t, []string{"fries", "cola", "burger"}, productIDs(s.Items()))
}

func TestStoreScenario(t *testing.T) {
	s := cart.NewStore()
	burger := candidate("burger", "5.00")

	require.NoError(t, s.AddItem(burger))
	require.NoError(t, s.AddItem(burger))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 2, s.TotalItems())

	require.NoError(t, s.AddItem(
		candidate("burger", "5.00", domain.Customization{ID: "cheese"}),
	))
	items = s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[1].Quantity)

	require.True(t, s.DecreaseQty("burger", nil))
	assert.Equal(t, 1, s.Items()[0].Quantity)

	require.True(t, s.DecreaseQty("burger", nil))
	items = s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, []string{"cheese"}, customizationIDs(items[0]))
}

func TestStoreSnapshot(t *testing.T) {
	t.Run("VersionGrowsOnChange", func(t *testing.T) {
		s := cart.NewStore()
		assert.Zero(t, s.Snapshot().Version)

		require.NoError(t, s.AddItem(candidate("burger", "5.00")))
		assert.Equal(t, uint64(1), s.Snapshot().Version)

		s.IncreaseQty("pizza", nil)
		assert.Equal(t, uint64(1), s.Snapshot().Version)

		s.IncreaseQty("burger", nil)
		assert.Equal(t, uint64(2), s.Snapshot().Version)
	})

	t.Run("ItemsAreCopies", func(t *testing.T) {
		s := cart.NewStore()
		require.NoError(t, s.AddItem(
			candidate("burger", "5.00", customization("cheese", "0.50")),
		))

		items := s.Items()
		items[0].Quantity = 100
		items[0].Customizations[0].ID = "bacon"

		fresh := s.Items()
		assert.Equal(t, 1, fresh[0].Quantity)
		assert.Equal(t, []string{"cheese"}, customizationIDs(fresh[0]))
	})
}

func TestStoreSubscribe(t *testing.T) {
	s := cart.NewStore()

	var got []cart.Change
	s.Subscribe(func(c cart.Change) {
		got = append(got, c)
	})

	require.NoError(t, s.AddItem(candidate("burger", "5.00")))
	s.DecreaseQty("pizza", nil)
	s.IncreaseQty("burger", nil)
	s.DecreaseQty("burger", nil)
	s.RemoveItem("burger", nil)
	s.ClearCart()
	require.NoError(t, s.Restore(domain.Cart{
		Items: []domain.CartItem{func() domain.CartItem {
			v := candidate("fries", "2.00")
			v.Quantity = 1
			return v
		}()},
	}))

	want := []struct {
		action domain.CartAction
		delta  int
		total  int
	}{
		{domain.CartActionAdd, 1, 1},
		{domain.CartActionIncrease, 1, 2},
		{domain.CartActionDecrease, -1, 1},
		{domain.CartActionRemove, 0, 0},
		{domain.CartActionClear, 0, 0},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.action, got[i].Action)
		assert.Equal(t, w.delta, got[i].Delta)
		assert.Equal(t, w.total, got[i].Cart.TotalItems)
		assert.Equal(t, uint64(i+1), got[i].Cart.Version)
	}
	assert.Equal(t, "burger", got[0].ProductID)
	assert.Equal(t, uint64(6), s.Version())
}

func TestStoreObserverMayReadStore(t *testing.T) {
	s := cart.NewStore()
	var total int
	s.Subscribe(func(cart.Change) {
		total = s.TotalItems()
	})

	require.NoError(t, s.AddItem(candidate("burger", "5.00")))
	assert.Equal(t, 1, total)
}

func TestStoreRestore(t *testing.T) {
	t.Run("MergesAndDropsEmpty", func(t *testing.T) {
		s := cart.NewStore()
		a := candidate("burger", "5.00", customization("a", "1"), customization("b", "1"))
		a.Quantity = 2
		b := candidate("burger", "5.00", customization("b", "1"), customization("a", "1"))
		b.Quantity = 3
		empty := candidate("fries", "2.00")

		err := s.Restore(domain.Cart{
			Items:   []domain.CartItem{a, empty, b},
			Version: 10,
		})
		require.NoError(t, err)

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 5, items[0].Quantity)
		assert.Equal(t, uint64(11), s.Snapshot().Version)
	})

	t.Run("NormalizesCustomizations", func(t *testing.T) {
		s := cart.NewStore()
		a := customization("a", "1.00")
		v := candidate("pizza", "10.00", a, a)
		v.Quantity = 2

		require.NoError(t, s.Restore(domain.Cart{Items: []domain.CartItem{v}}))
		assert.True(t, price("22.00").Equal(s.TotalPrice()), s.TotalPrice().String())
	})

	t.Run("VersionMovesPastCurrent", func(t *testing.T) {
		s := cart.NewStore()
		for range 3 {
			require.NoError(t, s.AddItem(candidate("burger", "5.00")))
		}
		require.NoError(t, s.Restore(domain.Cart{Version: 1}))
		assert.Equal(t, uint64(4), s.Version())
	})

	t.Run("InvalidItem", func(t *testing.T) {
		s := cart.NewStore()
		require.NoError(t, s.AddItem(candidate("burger", "5.00")))

		err := s.Restore(domain.Cart{
			Items: []domain.CartItem{candidate("", "1.00")},
		})
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Equal(t, 1, s.TotalItems())
	})
}

func TestStoreConcurrentAdds(t *testing.T) {
	s := cart.NewStore()
	v := candidate("burger", "5.00")

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range perWorker {
				_ = s.AddItem(v)
			}
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, workers*perWorker, items[0].Quantity)
}

func customizationIDs(v domain.CartItem) []string {
	ids := make([]string, len(v.Customizations))
	for i, c := range v.Customizations {
		ids[i] = c.ID
	}
	return ids
}

func productIDs(items []domain.CartItem) []string {
	ids := make([]string, len(items))
	for i, v := range items {
		ids[i] = v.ProductID
	}
	return ids
}
