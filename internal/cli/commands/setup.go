// Package commands implements the curator subcommands.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	cliconfig "github.com/curator-io/curator/internal/cli/config"
	intconfig "github.com/curator-io/curator/internal/config"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *intconfig.Config
	Logger *slog.Logger
}

// NewCommandContext assembles the config and logger for a command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := cliconfig.GetCurrentConfig()
	if cfg == nil {
		cfg = intconfig.Default()
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: cliconfig.GetLogger(cmd.Context()),
	}
}
