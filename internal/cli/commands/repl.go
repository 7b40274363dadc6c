package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/internal/cli/config"
	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

const (
	replPrompt         = "logdetective> "
	replContinuePrompt = "         ...> "
)

// lineReader is the part of readline the REPL loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Paste logs interactively and inspect the errors",
		Long: `Start an interactive prompt. Paste a log, then press Enter on an empty
line to parse it. Type :help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	// Setup history file next to the history database
	historyFile := ""
	if cmdCtx.Cfg.HistoryPath != "" && cmdCtx.Cfg.HistoryPath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.HistoryPath), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Printf("logdetective REPL (language: %s)\n", cmdCtx.Cfg.Language)
	r.Println("Paste a log and finish with an empty line. Type :help for commands, :quit to exit")
	r.Println()

	eco, err := cmdCtx.Cfg.Ecosystem()
	if err != nil {
		return err
	}
	return replLoop(rl, r, eco, cmdCtx.Cfg.MaxFrames)
}

// replLoop reads pasted blocks until EOF or :quit. A block still pending at
// EOF is parsed before returning.
func replLoop(rl lineReader, r *output.Renderer, eco core.Ecosystem, maxFrames int) error {
	var buf strings.Builder
	flush := func() error {
		rl.SetPrompt(replPrompt)
		doc, err := parseText("", buf.String(), eco)
		buf.Reset()
		if err != nil {
			r.Error(err.Error())
			return nil
		}
		if err := renderDocuments(r, []extract.Document{doc}, maxFrames); err != nil {
			return err
		}
		r.Println()
		return nil
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			if buf.Len() > 0 {
				return flush()
			}
			break
		}
		if err != nil {
			return err
		}

		// Commands are only recognised at the start of a block.
		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			quit, next := handleREPLCommand(r, strings.TrimSpace(line), eco)
			if quit {
				break
			}
			eco = next
			continue
		}

		if strings.TrimSpace(line) != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
			rl.SetPrompt(replContinuePrompt)
			continue
		}
		if buf.Len() == 0 {
			continue
		}

		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

// handleREPLCommand runs a colon command. It reports whether to quit and the
// language override to use from now on.
func handleREPLCommand(r *output.Renderer, line string, eco core.Ecosystem) (bool, core.Ecosystem) {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ":quit", ":exit", ":q":
		return true, eco

	case ":help":
		printREPLHelp(r.Writer())

	case ":lang", ":language":
		if len(parts) < 2 {
			r.Printf("language: %s\n", displayLanguage(eco))
			return false, eco
		}
		next, err := config.ParseLanguage(parts[1])
		if err != nil {
			r.Error(err.Error())
			return false, eco
		}
		r.Printf("language: %s\n", displayLanguage(next))
		return false, next

	default:
		r.Error(fmt.Sprintf("unknown command %s (type :help for commands)", parts[0]))
	}
	return false, eco
}

func displayLanguage(eco core.Ecosystem) string {
	if eco == core.EcosystemUnknown {
		return config.DefaultLanguage
	}
	return eco.String()
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  :help                    Show this help message
  :lang [auto|java|python] Show or set the language override
  :quit / :exit            Exit the REPL

Tips:
  - Paste a log, then press Enter on an empty line to parse it
  - Ctrl+C discards the current paste
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter completes colon commands.
func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(":help"),
		readline.PcItem(":lang",
			readline.PcItem("auto"),
			readline.PcItem("java"),
			readline.PcItem("python"),
		),
		readline.PcItem(":quit"),
		readline.PcItem(":exit"),
	)
}
