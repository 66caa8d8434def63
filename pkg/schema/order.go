package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const OrderSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.orders",
	"name": "order",
	"fields": [
		{"name": "order_id", "type": "string"},
		{"name": "user_id", "type": "string"},
		{"name": "lines", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "order_line",
				"fields": [
					{"name": "product", "type": {
						"type": "record",
						"name": "order_product",
						"fields": [
							{"name": "product_id", "type": "string"},
							{"name": "name", "type": "string"},
							{"name": "price", "type": "double"},
							{"name": "category", "type": "string"},
							{"name": "image", "type": "string"},
							{"name": "description", "type": "string"},
							{"name": "stock", "type": "int"},
							{"name": "original_price", "type": ["null", "double"], "default": null}
						]
					}},
					{"name": "quantity", "type": "int"}
				]
			}
		}},
		{"name": "total", "type": "double"},
		{"name": "shipping", "type": {
			"type": "record",
			"name": "shipping_info",
			"fields": [
				{"name": "name", "type": "string"},
				{"name": "email", "type": "string"},
				{"name": "address", "type": "string"},
				{"name": "city", "type": "string"},
				{"name": "zip_code", "type": "string"}
			]
		}},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// OrderHistorySchemaTextV1 is the schema of the order list kept per user.
const OrderHistorySchemaTextV1 = `{"type": "array", "items": ` + OrderSchemaTextV1 + `}`

type (
	OrderV1 struct {
		OrderID   string         `avro:"order_id"`
		UserID    string         `avro:"user_id"`
		Lines     []OrderLineV1  `avro:"lines"`
		Total     float64        `avro:"total"`
		Shipping  ShippingInfoV1 `avro:"shipping"`
		CreatedAt time.Time      `avro:"created_at"`
	}

	OrderLineV1 struct {
		Product  OrderProductV1 `avro:"product"`
		Quantity int            `avro:"quantity"`
	}

	OrderProductV1 struct {
		ProductID     string   `avro:"product_id"`
		Name          string   `avro:"name"`
		Price         float64  `avro:"price"`
		Category      string   `avro:"category"`
		Image         string   `avro:"image"`
		Description   string   `avro:"description"`
		Stock         int      `avro:"stock"`
		OriginalPrice *float64 `avro:"original_price"`
	}

	ShippingInfoV1 struct {
		Name    string `avro:"name"`
		Email   string `avro:"email"`
		Address string `avro:"address"`
		City    string `avro:"city"`
		ZipCode string `avro:"zip_code"`
	}
)

func OrderV1Avro() avro.Schema {
	return avro.MustParse(OrderSchemaTextV1)
}

func OrderHistoryV1Avro() avro.Schema {
	return avro.MustParse(OrderHistorySchemaTextV1)
}
