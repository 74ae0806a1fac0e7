package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "raw/orders.csv", cfg.OrdersPath)
	assert.Equal(t, "raw/products.csv", cfg.ProductsPath)
	assert.Equal(t, "cleansed", cfg.CleansedDir)
	assert.False(t, cfg.Verbose)
	assert.Len(t, cfg.OrdersSchema, 8)
	assert.Len(t, cfg.ProductsSchema, 5)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfigFile(t, dir, "curator.yaml", `
orders_path: data/orders.csv
products_path: /srv/products.csv
verbose: true
normalization:
  title_columns:
    - category
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	// Relative paths from the file resolve against its directory;
	// absolute paths pass through.
	assert.Equal(t, filepath.Join(dir, "data/orders.csv"), cfg.OrdersPath)
	assert.Equal(t, "/srv/products.csv", cfg.ProductsPath)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, []string{"category"}, cfg.Normalization.TitleColumns)
	assert.Equal(t, "curator.yaml", GetConfigFileUsed())
}

func TestLoadConfigExplicitFileWins(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfigFile(t, dir, "curator.yaml", "orders_path: ignored.csv\n")
	explicit := writeConfigFile(t, dir, "other.yaml", "orders_path: chosen.csv\n")

	cfg, err := LoadConfig(explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, explicit, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "chosen.csv"), cfg.OrdersPath)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfigFile(t, dir, "curator.yaml", "orders_path: from_file.csv\n")
	t.Setenv("CURATOR_ORDERS_PATH", "/env/orders.csv")
	t.Setenv("CURATOR_VERBOSE", "true")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/env/orders.csv", cfg.OrdersPath)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("CURATOR_CURATED_DIR", "/env/curated")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("curated-dir", "curated", "")
	flags.String("cleansed-dir", "cleansed", "")
	require.NoError(t, flags.Parse([]string{"--curated-dir", "/flag/curated"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "/flag/curated", cfg.CuratedDir)
	// Unchanged flags don't override lower layers.
	assert.Equal(t, "cleansed", cfg.CleansedDir)
}

func TestLoadConfigBadYAML(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfigFile(t, dir, "curator.yaml", "orders_path: [unterminated\n")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curator.yaml")
}

func TestLoadConfigInvalidRejected(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfigFile(t, dir, "curator.yaml", `orders_path: ""`)

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestGetLoggerFallback(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)

	want := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), want)
	assert.Same(t, want, GetLogger(ctx))
}
