package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mydoor3520/log-detective/internal/cli/config"
	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/internal/history"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext gathers the config, logger and renderer the root command
// stored in the context. Commands run outside the root fall back to the
// current config and a renderer on the command's writers.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	cfg, ok := config.FromContext(ctx)
	if !ok {
		cfg = getConfig()
	}
	logger := config.GetLogger(ctx)

	r, ok := output.FromContext(ctx)
	if !ok {
		mode, err := output.ParseMode(cfg.Output)
		if err != nil {
			return nil, err
		}
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// errNoHistory is returned when history is needed but no database path is set.
var errNoHistory = errors.New("history database path is empty (set history_path or --history-db)")

// OpenHistory opens and migrates the history database.
// Returns the store and a cleanup function that must be called (typically via defer).
func (c *CommandContext) OpenHistory() (*history.SQLiteStore, func(), error) {
	if c.Cfg.HistoryPath == "" {
		return nil, nil, errNoHistory
	}
	store := history.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.HistoryPath); err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate history: %w", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			c.Logger.Warn("failed to close history", "error", err)
		}
	}
	return store, cleanup, nil
}

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
