package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mydoor3520/log-detective/internal/cli/config"
	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Files []string
	Text  string
	Save  bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract errors and stack traces from log text",
		Long: `Parse log text and print every error found, with its stack trace.

The language (java or python) is detected automatically unless --language
is given. Input comes from --text, one or more --file flags, or stdin.

Output adapts to environment:
  - Terminal: Styled panels
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, table, markdown, json`,
		Example: `  # Parse a log file
  logdetective parse -f app.log

  # Parse several files concurrently as JSON
  logdetective parse -f api.log -f worker.log -o json

  # Pipe from another command
  kubectl logs pod/api | logdetective parse

  # Force the Python extractor and record results in history
  logdetective parse -f worker.log -l python --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runParse(cmd, opts)
		},
	}

	addInputFlags(cmd, &opts.Files, &opts.Text)
	cmd.Flags().StringP("language", "l", config.DefaultLanguage, "Language override (auto|java|python)")
	cmd.Flags().Int("jobs", config.DefaultJobs, "Number of files parsed concurrently")
	cmd.Flags().Int("max-frames", config.DefaultMaxFrames, "Stack frames shown per error in text output (0 for all)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Record extracted errors in the history database")
	registerLanguageCompletion(cmd)

	return cmd
}

func runParse(cmd *cobra.Command, opts *ParseOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	inputs, err := collectInputs(cmd, opts.Files, opts.Text)
	if err != nil {
		return err
	}

	eco, err := cmdCtx.Cfg.Ecosystem()
	if err != nil {
		return err
	}

	// Blank inputs are reported and skipped.
	nonBlank := make([]input, 0, len(inputs))
	for _, in := range inputs {
		if in.blank() {
			if in.source != "" && in.source != stdinSource {
				r.Warning("Empty input: " + in.source)
			} else {
				r.Warning("Empty input")
			}
			continue
		}
		nonBlank = append(nonBlank, in)
	}
	if len(nonBlank) == 0 {
		return nil
	}

	docs, err := parseInputs(cmd.Context(), nonBlank, eco, cmdCtx.Cfg.Jobs)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		cmdCtx.Logger.Debug("parsed input", "source", doc.Source, "language", doc.Language, "errors", doc.ErrorCount)
	}

	if opts.Save {
		if err := saveDocuments(cmdCtx, docs); err != nil {
			return err
		}
	}

	return renderDocuments(r, docs, cmdCtx.Cfg.MaxFrames)
}

// parseInputs extracts records from every input, at most jobs at a time.
// Results keep input order.
func parseInputs(ctx context.Context, inputs []input, eco core.Ecosystem, jobs int) ([]extract.Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	docs := make([]extract.Document, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := parseText(in.source, in.text, eco)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// parseText runs detection and extraction, or only extraction when eco is known.
func parseText(source, text string, eco core.Ecosystem) (extract.Document, error) {
	if eco == core.EcosystemUnknown {
		detected, records := extract.Parse(text)
		return extract.NewDocument(source, detected, records), nil
	}
	records, err := extract.ParseAs(text, eco)
	if err != nil {
		return extract.Document{}, err
	}
	return extract.NewDocument(source, eco, records), nil
}

// saveDocuments records every extracted error in the history database.
func saveDocuments(cmdCtx *CommandContext, docs []extract.Document) error {
	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer cleanup()

	total := 0
	for _, doc := range docs {
		n, err := store.RecordErrors(doc.Source, doc.Errors)
		if err != nil {
			return err
		}
		total += n
	}
	_, _ = fmt.Fprintf(cmdCtx.Renderer.ErrWriter(), "Saved %d error(s) to %s\n", total, cmdCtx.Cfg.HistoryPath)
	return nil
}

// registerLanguageCompletion completes --language values.
func registerLanguageCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("language", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "java", "python"}, cobra.ShellCompDirectiveNoFileComp
	})
}
