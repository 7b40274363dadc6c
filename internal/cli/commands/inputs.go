package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNoInput is returned when a command has nothing to read.
var ErrNoInput = errors.New("no input provided: use --file, --text, or pipe a log on stdin")

// stdinSource is the name given to text read from stdin.
const stdinSource = "<stdin>"

// input is one piece of log text and where it came from.
type input struct {
	source string
	text   string
}

// blank reports whether the input has no content.
func (in input) blank() bool {
	return strings.TrimSpace(in.text) == ""
}

// collectInputs gathers the command inputs: --text wins, then --file in
// order, then stdin when it is not a terminal.
func collectInputs(cmd *cobra.Command, files []string, text string) ([]input, error) {
	if text != "" {
		return []input{{source: "", text: text}}, nil
	}

	if len(files) > 0 {
		inputs := make([]input, 0, len(files))
		for _, path := range files {
			data, err := os.ReadFile(path) //nolint:gosec // reading user-named log files is the point
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			inputs = append(inputs, input{source: path, text: string(data)})
		}
		return inputs, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return nil, ErrNoInput
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return []input{{source: stdinSource, text: string(data)}}, nil
}

// addInputFlags registers the shared --file and --text flags.
func addInputFlags(cmd *cobra.Command, files *[]string, text *string) {
	cmd.Flags().StringArrayVarP(files, "file", "f", nil, "Log file to read (repeatable)")
	cmd.Flags().StringVarP(text, "text", "t", "", "Log text to parse directly")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
}
