package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/detect"
)

// DetectResult is the JSON shape of one detection.
type DetectResult struct {
	Source   string         `json:"source,omitempty"`
	Language core.Ecosystem `json:"language"`
	Scores   detect.Score   `json:"scores"`
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	var files []string
	var text string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect which language produced a log",
		Long: `Score log text against the Java and Python signatures and print the
detected language with both confidence scores. A language needs a score of
at least ` + strconv.Itoa(detect.MinScore) + ` to be reported.`,
		Example: `  # Detect from a file
  logdetective detect -f app.log

  # Detect from stdin as JSON
  cat app.log | logdetective detect -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetect(cmd, files, text)
		},
	}

	addInputFlags(cmd, &files, &text)
	return cmd
}

func runDetect(cmd *cobra.Command, files []string, text string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	inputs, err := collectInputs(cmd, files, text)
	if err != nil {
		return err
	}

	results := make([]DetectResult, len(inputs))
	for i, in := range inputs {
		scores := detect.Scores(in.text)
		results[i] = DetectResult{Source: in.source, Language: scores.Ecosystem(), Scores: scores}
		if results[i].Source == stdinSource {
			results[i].Source = ""
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if len(results) == 1 {
			return r.JSON(results[0])
		}
		return r.JSON(results)

	case output.ModeMarkdown:
		for _, res := range results {
			title := "Detection"
			if res.Source != "" {
				title = "Detection: " + res.Source
			}
			r.Println(output.FormatHeader(2, title))
			r.Println()
			r.Println(output.FormatKeyValue("Language", res.Language.String()))
			r.Println(output.FormatKeyValue("Java score", strconv.Itoa(res.Scores.Java)))
			r.Println(output.FormatKeyValue("Python score", strconv.Itoa(res.Scores.Python)))
			r.Println()
		}

	default:
		styles := r.Styles()
		for _, res := range results {
			label := "Detected language"
			if res.Source != "" {
				label = res.Source
			}
			r.Printf("%s: %s\n", label, styles.Bold.Render(res.Language.String()))
			r.Muted(fmt.Sprintf("  java=%d python=%d (minimum %d)", res.Scores.Java, res.Scores.Python, detect.MinScore))
		}
	}
	return nil
}
