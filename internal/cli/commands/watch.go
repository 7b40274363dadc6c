package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/internal/cli/config"
	"github.com/mydoor3520/log-detective/internal/history"
	"github.com/mydoor3520/log-detective/internal/watch"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	File string
	Save bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a log file and report new errors",
		Long: `Follow a log file and print errors as they are appended.

Text is parsed once writes have been quiet for the debounce period.
Truncated or rotated files are read again from the start. Press Ctrl+C to stop.`,
		Example: `  # Follow a log file
  logdetective watch -f /var/log/app.log

  # Include what is already in the file and record findings
  logdetective watch -f app.log --from-start --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Log file to follow (required)")
	cmd.Flags().StringP("language", "l", config.DefaultLanguage, "Language override (auto|java|python)")
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period after the last write before parsing")
	cmd.Flags().Bool("from-start", false, "Parse the existing file contents first")
	cmd.Flags().Int("max-frames", config.DefaultMaxFrames, "Stack frames shown per error in text output (0 for all)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Record extracted errors in the history database")
	_ = cmd.MarkFlagRequired("file")
	registerLanguageCompletion(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	eco, err := cfg.Ecosystem()
	if err != nil {
		return err
	}

	w, err := watch.New(watch.Options{
		Path:      opts.File,
		Debounce:  cfg.Watch.Debounce,
		FromStart: cfg.Watch.PollFromStart,
		Language:  eco,
	}, cmdCtx.Logger)
	if err != nil {
		return err
	}

	var store *history.SQLiteStore
	if opts.Save {
		s, cleanup, err := cmdCtx.OpenHistory()
		if err != nil {
			return err
		}
		defer cleanup()
		store = s
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(r.ErrWriter(), "Watching %s (Ctrl+C to stop)\n", opts.File)

	return w.Run(ctx, func(doc extract.Document) error {
		if store != nil {
			if _, err := store.RecordErrors(doc.Source, doc.Errors); err != nil {
				cmdCtx.Logger.Warn("failed to record errors", "error", err)
			}
		}
		return renderDocuments(r, []extract.Document{doc}, cfg.MaxFrames)
	})
}
