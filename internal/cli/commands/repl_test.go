package commands

import (
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/internal/cli/testutil"
	"github.com/mydoor3520/log-detective/pkg/core"
)

// scriptedReader replays lines, then reports EOF.
type scriptedReader struct {
	lines   []string
	errs    map[int]error
	pos     int
	prompts []string
}

func (s *scriptedReader) Readline() (string, error) {
	if err, ok := s.errs[s.pos]; ok {
		s.pos++
		return "", err
	}
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

func (s *scriptedReader) SetPrompt(prompt string) {
	s.prompts = append(s.prompts, prompt)
}

func script(text string) *scriptedReader {
	return &scriptedReader{lines: strings.Split(text, "\n")}
}

func TestREPLLoop_ParsesPastedBlock(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	rl := script(strings.TrimRight(testutil.PythonLog, "\n") + "\n\n:quit")

	require.NoError(t, replLoop(rl, tr.Renderer, core.EcosystemUnknown, 5))

	out := tr.Output()
	assert.Contains(t, out, "## Parsed Errors (python)")
	assert.Contains(t, out, "### Error #1: KeyError")
	assert.Contains(t, rl.prompts, replContinuePrompt)
	assert.Equal(t, replPrompt, rl.prompts[len(rl.prompts)-1])
}

func TestREPLLoop_PendingBlockAtEOF(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	rl := script(strings.TrimRight(testutil.JavaLog, "\n"))

	require.NoError(t, replLoop(rl, tr.Renderer, core.EcosystemUnknown, 5))
	assert.Contains(t, tr.Output(), "### Error #1: java.lang.NullPointerException")
}

func TestREPLLoop_LanguageCommand(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeJSON, false)
	rl := script(":lang java\nKeyError: 'x'\n\n:lang\n:lang ruby\n:nope\n:exit")

	require.NoError(t, replLoop(rl, tr.Renderer, core.EcosystemUnknown, 5))

	out := tr.Output()
	assert.Contains(t, out, "language: java")
	assert.Contains(t, out, `"language": "java"`)
	assert.Contains(t, tr.ErrorOutput(), "invalid language")
	assert.Contains(t, tr.ErrorOutput(), "unknown command :nope")
}

func TestREPLLoop_InterruptDiscardsBlock(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	// The interrupt replaces line 1 and discards the buffered line 0.
	rl := &scriptedReader{
		lines: []string{"java.lang.IllegalStateException: boom", "", "", ":quit"},
		errs:  map[int]error{1: readline.ErrInterrupt},
	}

	require.NoError(t, replLoop(rl, tr.Renderer, core.EcosystemUnknown, 5))
	assert.NotContains(t, tr.Output(), "IllegalStateException")
}

func TestREPLLoop_CommandsOnlyAtBlockStart(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	rl := script("java.lang.IllegalStateException: boom\n:quit\n")

	require.NoError(t, replLoop(rl, tr.Renderer, core.EcosystemUnknown, 5))
	assert.Contains(t, tr.Output(), "java.lang.IllegalStateException")
}

func TestHandleREPLCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantQuit bool
		wantEco  core.Ecosystem
	}{
		{line: ":quit", wantQuit: true, wantEco: core.EcosystemJava},
		{line: ":q", wantQuit: true, wantEco: core.EcosystemJava},
		{line: ":help", wantEco: core.EcosystemJava},
		{line: ":lang python", wantEco: core.EcosystemPython},
		{line: ":lang auto", wantEco: core.EcosystemUnknown},
		{line: ":lang cobol", wantEco: core.EcosystemJava},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tr := testutil.NewTestRenderer(output.ModeText, false)
			quit, eco := handleREPLCommand(tr.Renderer, tt.line, core.EcosystemJava)
			assert.Equal(t, tt.wantQuit, quit)
			assert.Equal(t, tt.wantEco, eco)
		})
	}
}
