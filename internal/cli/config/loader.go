// Package config loads the CLI-facing configuration by layering
// defaults, an optional curator.yaml file, CURATOR_ environment
// variables, and command-line flags.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/curator-io/curator/internal/config"
)

// loggerKey is used to store the logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *intconfig.Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > curator.yaml > curator.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"curator.yaml", "curator.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*intconfig.Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	cfg := intconfig.Default()

	// 1. Load scalar defaults so env vars and flags merge over known keys.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"orders_path":    cfg.OrdersPath,
		"products_path":  cfg.ProductsPath,
		"log_path":       cfg.LogPath,
		"state_path":     cfg.StatePath,
		"cleansed_dir":   cfg.CleansedDir,
		"curated_dir":    cfg.CuratedDir,
		"quarantine_dir": cfg.QuarantineDir,
		"verbose":        false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file if present
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (CURATOR_ prefix)
	// Transform: CURATOR_ORDERS_PATH -> orders_path
	if err := k.Load(env.Provider("CURATOR_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CURATOR_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal over the defaults; schemas and rule tables in the
	// file replace the built-in ones wholesale.
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths against the config file's directory,
	// so invoking curator from elsewhere still finds the project files.
	if configFileUsed != "" {
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			base := filepath.Dir(abs)
			cfg.OrdersPath = resolvePathRelativeTo(cfg.OrdersPath, base)
			cfg.ProductsPath = resolvePathRelativeTo(cfg.ProductsPath, base)
			cfg.LogPath = resolvePathRelativeTo(cfg.LogPath, base)
			cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, base)
			cfg.CleansedDir = resolvePathRelativeTo(cfg.CleansedDir, base)
			cfg.CuratedDir = resolvePathRelativeTo(cfg.CuratedDir, base)
			cfg.QuarantineDir = resolvePathRelativeTo(cfg.QuarantineDir, base)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = cfg
	return cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *intconfig.Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
