package commands

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/internal/cli/config"
	"github.com/mydoor3520/log-detective/internal/cli/output"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, edit and inspect logdetective.yaml",
		Long: `Manage the configuration file.

Settings are read from built-in defaults, then logdetective.yaml (searched
upward from the current directory), then LOGDETECTIVE_* environment
variables, then command-line flags.`,
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

// configTarget returns the file config commands write to.
func configTarget(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}
	if used := config.GetConfigFileUsed(); used != "" {
		return used
	}
	return config.DefaultConfigFile
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultConfigFile
			}
			if err := config.WriteDefaultFile(path, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return err
				}
				return fmt.Errorf("failed to initialize config: %w", err)
			}

			cmdCtx.Renderer.Success("Created " + path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in the config file",
		Example: `  logdetective config set output json
  logdetective config set watch.debounce 500ms`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			path := configTarget(cmd)
			if err := config.SetFileValue(path, args[0], args[1]); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Set %s = %s in %s", args[0], args[1], path))
			return nil
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			r := cmdCtx.Renderer
			values := cmdCtx.Cfg.Values()
			source := config.GetConfigFileUsed()

			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(struct {
					ConfigFile string            `json:"config_file"`
					Values     map[string]string `json:"values"`
				}{source, values})

			case output.ModeMarkdown:
				r.Println(output.FormatHeader(2, "Configuration"))
				r.Println()
				if source == "" {
					source = "(none, using defaults)"
				}
				r.Println(output.FormatKeyValue("Config file", source))
				r.Println()
				for _, key := range config.Keys() {
					r.Println(output.FormatKeyValue(key, "`"+values[key]+"`"))
				}
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			if source != "" {
				t.SetTitle(source)
			}
			t.AppendHeader(table.Row{"Key", "Value"})
			for _, key := range config.Keys() {
				t.AppendRow(table.Row{key, values[key]})
			}
			t.Render()
			return nil
		},
	}
}
