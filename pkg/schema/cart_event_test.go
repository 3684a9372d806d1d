package schema

import (
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartEventV1(t *testing.T) {
	var eventSchema avro.Schema

	require.NotPanics(t, func() {
		eventSchema = CartEventV1Avro()
	})

	t.Run("Regular", func(t *testing.T) {
		vMarshal := CartEventV1{
			UserID:    "testUserID",
			Action:    "add",
			ProductID: "testProductID",
			Delta:     2,
			Version:   42,
			Items: []CartItemV1{
				{
					ProductID: "testProductID",
					Name:      "testName",
					Price:     "5.00",
					ImageRef:  "testImage",
					Quantity:  2,
					Customizations: []CustomizationV1{
						{ID: "cheese", Name: "Cheese", Price: "0.50", Kind: "topping"},
					},
				},
			},
			TotalItems: 2,
			TotalPrice: "11.00",
			OccurredAt: 1751371200000,
		}

		data, err := avro.Marshal(eventSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal CartEventV1
		err = avro.Unmarshal(eventSchema, data, &vUnmarshal)
		require.NoError(t, err)

		assert.Equal(t, vMarshal, vUnmarshal)
	})

	t.Run("NilArrays", func(t *testing.T) {
		vMarshal := CartEventV1{
			UserID:     "testUserID",
			Action:     "clear",
			Items:      nil,
			TotalPrice: "0",
		}

		data, err := avro.Marshal(eventSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal CartEventV1
		err = avro.Unmarshal(eventSchema, data, &vUnmarshal)
		require.NoError(t, err)

		assert.Equal(t, vMarshal.UserID, vUnmarshal.UserID)
		assert.Equal(t, vMarshal.Action, vUnmarshal.Action)
		assert.Empty(t, vUnmarshal.Items)
	})
}
