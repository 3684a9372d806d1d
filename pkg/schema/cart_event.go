package schema

import "github.com/hamba/avro/v2"

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "foodex.cart",
	"name": "cart_event",
	"fields": [
		{"name": "user_id", "type": "string"},
		{"name": "action", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "delta", "type": "int"},
		{"name": "version", "type": "long"},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "cart_item",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "name", "type": "string"},
					{"name": "price", "type": "string"},
					{"name": "image_ref", "type": "string"},
					{"name": "quantity", "type": "int"},
					{"name": "customizations", "type": {
						"type": "array",
						"items": {
							"type": "record",
							"name": "customization",
							"fields": [
								{"name": "id", "type": "string"},
								{"name": "name", "type": "string"},
								{"name": "price", "type": "string"},
								{"name": "kind", "type": "string"}
							]
						}
					}}
				]
			}
		}},
		{"name": "total_items", "type": "int"},
		{"name": "total_price", "type": "string"},
		{"name": "occurred_at", "type": "long"}
	]
}`

// Prices are decimal strings, OccurredAt is unix milliseconds.
type (
	CartEventV1 struct {
		UserID     string       `avro:"user_id"`
		Action     string       `avro:"action"`
		ProductID  string       `avro:"product_id"`
		Delta      int          `avro:"delta"`
		Version    int64        `avro:"version"`
		Items      []CartItemV1 `avro:"items"`
		TotalItems int          `avro:"total_items"`
		TotalPrice string       `avro:"total_price"`
		OccurredAt int64        `avro:"occurred_at"`
	}

	CartItemV1 struct {
		ProductID      string            `avro:"product_id"`
		Name           string            `avro:"name"`
		Price          string            `avro:"price"`
		ImageRef       string            `avro:"image_ref"`
		Quantity       int               `avro:"quantity"`
		Customizations []CustomizationV1 `avro:"customizations"`
	}

	CustomizationV1 struct {
		ID    string `avro:"id"`
		Name  string `avro:"name"`
		Price string `avro:"price"`
		Kind  string `avro:"kind"`
	}
)

// CartEventV1Avro returns parsed [CartEventSchemaTextV1].
//
// Panics if the schema text is invalid.
func CartEventV1Avro() avro.Schema {
	return avro.MustParse(CartEventSchemaTextV1)
}
