package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-io/curator/internal/rules"
	"github.com/curator-io/curator/internal/table"
)

func TestDefaultSchemasParse(t *testing.T) {
	cfg := Default()

	schema, order, err := cfg.OrdersTableSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"order_id", "customer_id", "product_id", "quantity",
		"unit_price", "total_amount", "order_date", "order_status",
	}, order)
	assert.Equal(t, table.KindInt, schema["quantity"])
	assert.Equal(t, table.KindFloat, schema["unit_price"])
	assert.Equal(t, table.KindString, schema["order_date"])

	schema, order, err = cfg.ProductsTableSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"product_id", "product_name", "category", "price", "stock_quantity"}, order)
	assert.Equal(t, table.KindFloat, schema["price"])
}

func TestSchemaRejectsUnknownType(t *testing.T) {
	cfg := Default()
	cfg.OrdersSchema = append(cfg.OrdersSchema, ColumnSpec{Name: "extra", Type: "decimal"})
	_, _, err := cfg.OrdersTableSchema()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestDefaultRuleSetsFollowSchemaOrder(t *testing.T) {
	cfg := Default()
	orders, products, err := cfg.RuleSets()
	require.NoError(t, err)

	var cols []string
	for _, r := range orders.Rules {
		cols = append(cols, r.Column)
	}
	assert.Equal(t, []string{
		"order_id", "customer_id", "product_id", "quantity",
		"unit_price", "total_amount", "order_date", "order_status",
	}, cols)

	byColumn := make(map[string]rules.Rule)
	for _, r := range orders.Rules {
		byColumn[r.Column] = r
	}
	assert.Equal(t, rules.PrimaryKey, byColumn["order_id"].Kind)
	assert.Equal(t, rules.ForeignKey, byColumn["product_id"].Kind)
	assert.Equal(t, "products", byColumn["product_id"].Target)
	assert.Equal(t, rules.Enumeration, byColumn["order_status"].Kind)
	assert.Len(t, byColumn["order_status"].Allowed, 5)

	cols = cols[:0]
	for _, r := range products.Rules {
		cols = append(cols, r.Column)
	}
	assert.Equal(t, []string{"product_id", "product_name", "category", "price", "stock_quantity"}, cols)
}

func TestRuleSetsPropagatesParseErrors(t *testing.T) {
	cfg := Default()
	cfg.OrdersRules["order_id"] = "no_such_rule"
	_, _, err := cfg.RuleSets()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders validation rules")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.OrdersPath = ""
	assert.ErrorContains(t, cfg.Validate(), "orders_path")

	cfg = Default()
	cfg.ProductsPath = ""
	assert.ErrorContains(t, cfg.Validate(), "products_path")

	cfg = Default()
	cfg.ProductsSchema = nil
	assert.ErrorContains(t, cfg.Validate(), "schemas")
}
