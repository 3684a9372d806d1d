package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPricingSummarize(t *testing.T) {
	p := Pricing{
		DeliveryFee: decimal.RequireFromString("5.00"),
		Discount:    decimal.RequireFromString("0.50"),
	}

	t.Run("EmptyCart", func(t *testing.T) {
		s := p.Summarize(Cart{})
		assert.True(t, s.Total.IsZero())
		assert.True(t, s.DeliveryFee.IsZero())
	})

	t.Run("Regular", func(t *testing.T) {
		s := p.Summarize(Cart{
			TotalItems: 3,
			TotalPrice: decimal.RequireFromString("16.00"),
		})
		assert.True(t, decimal.RequireFromString("16.00").Equal(s.Subtotal))
		assert.True(t, decimal.RequireFromString("20.50").Equal(s.Total))
	})

	t.Run("TotalFloor", func(t *testing.T) {
		p := Pricing{Discount: decimal.NewFromInt(10)}
		s := p.Summarize(Cart{TotalItems: 1, TotalPrice: decimal.NewFromInt(1)})
		assert.True(t, s.Total.IsZero())
	})
}
