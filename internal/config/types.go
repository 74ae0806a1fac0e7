// Package config provides the shared pipeline configuration types.
// This package is decoupled from CLI concerns so the pipeline can be
// embedded and tested without the command layer.
package config

import (
	"fmt"

	"github.com/curator-io/curator/internal/normalize"
	"github.com/curator-io/curator/internal/rules"
	"github.com/curator-io/curator/internal/table"
)

// ColumnSpec declares one column of a dataset schema. Declaration order
// is meaningful: it drives rule evaluation order and output layout.
type ColumnSpec struct {
	Name string `koanf:"name"`
	Type string `koanf:"type"`
}

// Config holds the full pipeline configuration.
type Config struct {
	OrdersPath    string `koanf:"orders_path"`
	ProductsPath  string `koanf:"products_path"`
	LogPath       string `koanf:"log_path"`
	StatePath     string `koanf:"state_path"`
	CleansedDir   string `koanf:"cleansed_dir"`
	CuratedDir    string `koanf:"curated_dir"`
	QuarantineDir string `koanf:"quarantine_dir"`
	Verbose       bool   `koanf:"verbose"`

	OrdersSchema   []ColumnSpec `koanf:"orders_schema"`
	ProductsSchema []ColumnSpec `koanf:"products_schema"`

	// Rule descriptors per column; see rules.ParseSet for the accepted
	// descriptor forms.
	OrdersRules   map[string]any `koanf:"orders_validation_rules"`
	ProductsRules map[string]any `koanf:"products_validation_rules"`

	Normalization normalize.Config `koanf:"normalization"`
}

// schema converts column specs into a table schema plus declaration order.
func schema(specs []ColumnSpec) (table.Schema, []string, error) {
	s := make(table.Schema, len(specs))
	order := make([]string, 0, len(specs))
	for _, spec := range specs {
		kind, err := table.ParseKind(spec.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", spec.Name, err)
		}
		s[spec.Name] = kind
		order = append(order, spec.Name)
	}
	return s, order, nil
}

// OrdersTableSchema returns the declared orders schema and column order.
func (c *Config) OrdersTableSchema() (table.Schema, []string, error) {
	return schema(c.OrdersSchema)
}

// ProductsTableSchema returns the declared products schema and column order.
func (c *Config) ProductsTableSchema() (table.Schema, []string, error) {
	return schema(c.ProductsSchema)
}

// RuleSets parses both rule tables against their schema column order.
func (c *Config) RuleSets() (orders, products *rules.Set, err error) {
	_, ordersOrder, err := c.OrdersTableSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("orders schema: %w", err)
	}
	_, productsOrder, err := c.ProductsTableSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("products schema: %w", err)
	}

	orders, err = rules.ParseSet("orders", c.OrdersRules, ordersOrder)
	if err != nil {
		return nil, nil, fmt.Errorf("orders validation rules: %w", err)
	}
	products, err = rules.ParseSet("products", c.ProductsRules, productsOrder)
	if err != nil {
		return nil, nil, fmt.Errorf("products validation rules: %w", err)
	}
	return orders, products, nil
}

// Validate checks that the configuration names its required inputs.
func (c *Config) Validate() error {
	if c.OrdersPath == "" {
		return fmt.Errorf("orders_path is required")
	}
	if c.ProductsPath == "" {
		return fmt.Errorf("products_path is required")
	}
	if len(c.OrdersSchema) == 0 || len(c.ProductsSchema) == 0 {
		return fmt.Errorf("dataset schemas must not be empty")
	}
	return nil
}
