// Package output renders command results for terminals, scripts and agents.
//
// A Renderer resolves the requested OutputMode against the destination:
// auto picks styled text on a terminal and markdown everywhere else.
package output

import (
	"fmt"
	"slices"
	"strings"
)

// OutputMode selects how a command prints its results.
type OutputMode string //nolint:revive // output.OutputMode reads better than output.Type at call sites

// Mode is shorthand for OutputMode, used when converting config strings.
type Mode = OutputMode

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeTable    OutputMode = "table"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists every accepted mode.
var Modes = []OutputMode{ModeAuto, ModeText, ModeTable, ModeMarkdown, ModeJSON}

// ParseMode converts a user-supplied string to an OutputMode.
// The empty string means auto.
func ParseMode(s string) (OutputMode, error) {
	if s == "" {
		return ModeAuto, nil
	}
	m := OutputMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "md" {
		m = ModeMarkdown
	}
	if !slices.Contains(Modes, m) {
		return ModeAuto, fmt.Errorf("invalid output mode %q (expected one of: auto, text, table, markdown, json)", s)
	}
	return m, nil
}
