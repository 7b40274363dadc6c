package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/internal/history"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Remember fixes and review past errors",
		Long: `Manage the local history database.

Solutions map an error to the fix that worked. Errors recorded with
"parse --save" or "watch --save" are counted per type.`,
	}

	cmd.AddCommand(newHistoryAddCommand())
	cmd.AddCommand(newHistorySearchCommand())
	cmd.AddCommand(newHistoryListCommand())
	return cmd
}

func newHistoryAddCommand() *cobra.Command {
	var errText, solution string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Remember the solution to an error",
		Example: `  logdetective history add \
    -e "java.lang.NullPointerException: user is null" \
    -s "Check the repository returns an Optional"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, cleanup, err := cmdCtx.OpenHistory()
			if err != nil {
				return err
			}
			defer cleanup()

			sol, err := store.AddSolution(errText, solution)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(sol)
			}
			label := sol.ErrorType
			if label == "" {
				label = output.Truncate(sol.Error, messageWidth)
			}
			r.Success(fmt.Sprintf("Solution saved for %s", label))
			return nil
		},
	}

	cmd.Flags().StringVarP(&errText, "error", "e", "", "Error text or log excerpt (required)")
	cmd.Flags().StringVarP(&solution, "solution", "s", "", "What fixed it (required)")
	_ = cmd.MarkFlagRequired("error")
	_ = cmd.MarkFlagRequired("solution")
	return cmd
}

func newHistorySearchCommand() *cobra.Command {
	var query string
	var limit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find solutions for an error",
		Long: `Search remembered solutions. A pasted error is matched on its exception
type first, then on text anywhere in the error or solution.`,
		Example: `  logdetective history search -e "KeyError: 'user_id'"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, cleanup, err := cmdCtx.OpenHistory()
			if err != nil {
				return err
			}
			defer cleanup()

			solutions, err := store.SearchSolutions(query, limit)
			if err != nil {
				return err
			}
			return renderSolutions(cmdCtx.Renderer, query, solutions)
		},
	}

	cmd.Flags().StringVarP(&query, "error", "e", "", "Error text to search for (required)")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Maximum number of results")
	_ = cmd.MarkFlagRequired("error")
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most frequent recorded errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, cleanup, err := cmdCtx.OpenHistory()
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := store.TopErrors(limit)
			if err != nil {
				return err
			}
			return renderSummaries(cmdCtx.Renderer, summaries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Maximum number of error types")
	return cmd
}

func renderSolutions(r *output.Renderer, query string, solutions []history.Solution) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(solutions)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(2, fmt.Sprintf("Solutions (%d)", len(solutions))))
		if len(solutions) == 0 {
			r.Println()
			r.Printf("No solutions found for %q.\n", query)
			return nil
		}
		for i, sol := range solutions {
			r.Println()
			r.Println(output.FormatHeader(3, fmt.Sprintf("%d. %s", i+1, solutionLabel(sol))))
			r.Println()
			r.Println(output.FormatKeyValue("Language", sol.Language.String()))
			r.Println(output.FormatKeyValue("Added", sol.CreatedAt.Local().Format(time.DateTime)))
			r.Println(output.FormatKeyValue("Solution", sol.Solution))
			r.Println()
			r.Println(output.FormatCodeBlock("", sol.Error))
		}
		return nil
	}

	if len(solutions) == 0 {
		r.Muted(fmt.Sprintf("No solutions found for %q", query))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Error", "Language", "Solution", "Added"})
	for i, sol := range solutions {
		t.AppendRow(table.Row{
			i + 1,
			output.Truncate(solutionLabel(sol), messageWidth),
			sol.Language.String(),
			sol.Solution,
			sol.CreatedAt.Local().Format(time.DateOnly),
		})
	}
	t.Render()
	return nil
}

func renderSummaries(r *output.Renderer, summaries []history.ErrorSummary) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(summaries)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(2, fmt.Sprintf("Recorded Errors (%d types)", len(summaries))))
		r.Println()
		if len(summaries) == 0 {
			r.Println("No errors recorded yet. Use `parse --save` to record some.")
			return nil
		}
		r.Println("| Error Type | Language | Count | Last Seen |")
		r.Println("|---|---|---|---|")
		for _, s := range summaries {
			r.Printf("| %s | %s | %d | %s |\n", s.ErrorType, s.Language, s.Count, s.LastSeen.Local().Format(time.DateTime))
		}
		return nil
	}

	if len(summaries) == 0 {
		r.Muted("No errors recorded yet. Use 'parse --save' to record some.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Error Type", "Language", "Count", "Last Seen"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.ErrorType, s.Language.String(), strconv.Itoa(s.Count), s.LastSeen.Local().Format(time.DateTime)})
	}
	t.Render()
	return nil
}

func solutionLabel(sol history.Solution) string {
	if sol.ErrorType != "" {
		return sol.ErrorType
	}
	return sol.Error
}
