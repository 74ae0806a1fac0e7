package config

import "github.com/curator-io/curator/internal/normalize"

// Default returns the built-in configuration. File and environment
// layers override individual keys.
func Default() *Config {
	return &Config{
		OrdersPath:    "raw/orders.csv",
		ProductsPath:  "raw/products.csv",
		LogPath:       "logs/data_pipeline.log",
		StatePath:     ".curator/state.db",
		CleansedDir:   "cleansed",
		CuratedDir:    "curated",
		QuarantineDir: "logs",

		OrdersSchema: []ColumnSpec{
			{Name: "order_id", Type: "string"},
			{Name: "customer_id", Type: "string"},
			{Name: "product_id", Type: "string"},
			{Name: "quantity", Type: "int"},
			{Name: "unit_price", Type: "float"},
			{Name: "total_amount", Type: "float"},
			{Name: "order_date", Type: "string"},
			{Name: "order_status", Type: "string"},
		},
		ProductsSchema: []ColumnSpec{
			{Name: "product_id", Type: "string"},
			{Name: "product_name", Type: "string"},
			{Name: "category", Type: "string"},
			{Name: "price", Type: "float"},
			{Name: "stock_quantity", Type: "int"},
		},

		OrdersRules: map[string]any{
			"order_id":     "primary_key",
			"order_date":   "check_date_format",
			"customer_id":  "not_null",
			"product_id":   "exists_in_products",
			"quantity":     "positive",
			"unit_price":   "positive",
			"total_amount": "multiple_of_quantity_unit_price",
			"order_status": []any{"Pending", "Confirmed", "Cancelled", "Shipped", "Delivered"},
		},
		ProductsRules: map[string]any{
			"product_id":     "primary_key",
			"product_name":   "not_null",
			"category":       "not_null",
			"price":          "positive",
			"stock_quantity": "non_negative",
		},

		Normalization: normalize.DefaultConfig(),
	}
}
