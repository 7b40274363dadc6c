package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/internal/cli/testutil"
	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func sampleFrames(n int) []core.StackFrame {
	frames := make([]core.StackFrame, n)
	for i := range frames {
		frames[i] = core.StackFrame{
			FilePath:   "app.py",
			LineNumber: intPtr(10 + i),
			MethodName: strPtr("step"),
		}
	}
	return frames
}

func TestFrameLines(t *testing.T) {
	frames := []core.StackFrame{
		{FilePath: "calc.py", LineNumber: intPtr(5), MethodName: strPtr("divide"), CodeContext: strPtr("return a / b")},
		{FilePath: "Main.java", LineNumber: intPtr(3), MethodName: strPtr("run"), ClassName: strPtr("com.example.Main")},
		{FilePath: "Gen.java"},
	}

	lines := frameLines(frames, 0)
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}

	assert.Equal(t, []string{
		"  → calc.py:5 in divide",
		"       return a / b",
		"    Main.java:3 in com.example.Main.run",
		"    Gen.java",
	}, texts)
	assert.True(t, lines[1].context)
}

func TestFrameLines_Limit(t *testing.T) {
	tests := []struct {
		name      string
		frames    int
		maxFrames int
		wantLines int
		wantMore  string
	}{
		{name: "under limit", frames: 3, maxFrames: 5, wantLines: 3},
		{name: "at limit", frames: 5, maxFrames: 5, wantLines: 5},
		{name: "over limit", frames: 8, maxFrames: 5, wantLines: 6, wantMore: "    ... and 3 more frames"},
		{name: "unlimited", frames: 8, maxFrames: 0, wantLines: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := frameLines(sampleFrames(tt.frames), tt.maxFrames)
			require.Len(t, lines, tt.wantLines)
			if tt.wantMore != "" {
				last := lines[len(lines)-1]
				assert.True(t, last.more)
				assert.Equal(t, tt.wantMore, last.text)
			}
		})
	}
}

func TestRenderDocuments_JSONShape(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeJSON, false)
	doc := extract.NewDocument("", core.EcosystemUnknown, nil)

	require.NoError(t, renderDocuments(tr.Renderer, []extract.Document{doc}, 5))
	assert.JSONEq(t, `{"language":"unknown","error_count":0,"errors":[]}`, tr.Output())

	tr = testutil.NewTestRenderer(output.ModeJSON, false)
	docs := []extract.Document{
		extract.NewDocument("a.log", core.EcosystemJava, nil),
		extract.NewDocument("b.log", core.EcosystemPython, nil),
	}
	require.NoError(t, renderDocuments(tr.Renderer, docs, 5))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a.log", decoded[0]["source"])
}

func TestRenderDocuments_Modes(t *testing.T) {
	_, records := extract.Parse(testutil.PythonLog)
	doc := extract.NewDocument("", core.EcosystemPython, records)

	tests := []struct {
		mode output.OutputMode
		want []string
	}{
		{mode: output.ModeText, want: []string{"Found 1 error(s) (language: Python)", "Error #1", "Severity: ERROR", "KeyError: 'user_id'"}},
		{mode: output.ModeTable, want: []string{"Parsed Errors (python)", "KeyError", "/app/processor.py", "25"}},
		{mode: output.ModeMarkdown, want: []string{"## Parsed Errors (python)", "### Error #1: KeyError", "- **Severity:** error"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			tr := testutil.NewTestRenderer(tt.mode, false)
			require.NoError(t, renderDocuments(tr.Renderer, []extract.Document{doc}, 5))

			out := tr.Output()
			testutil.AssertNoANSI(t, out)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRenderDocuments_MultipleSources(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	docs := []extract.Document{
		extract.NewDocument("a.log", core.EcosystemUnknown, nil),
		extract.NewDocument("b.log", core.EcosystemUnknown, nil),
	}
	require.NoError(t, renderDocuments(tr.Renderer, docs, 5))

	out := tr.Output()
	assert.Contains(t, out, "# a.log")
	assert.Contains(t, out, "# b.log")
	assert.Contains(t, out, "No errors found (detected language: unknown)")
	testutil.AssertValidMarkdown(t, out)
}

func TestRenderTable_TruncatesMessage(t *testing.T) {
	rec := core.ErrorRecord{
		ErrorType:   "ValueError",
		Message:     "this message is definitely longer than fifty characters in total",
		Severity:    core.SeverityError,
		Ecosystem:   core.EcosystemPython,
		StackFrames: []core.StackFrame{},
	}
	tr := testutil.NewTestRenderer(output.ModeTable, false)
	require.NoError(t, renderDocuments(tr.Renderer, []extract.Document{extract.NewDocument("", core.EcosystemPython, []core.ErrorRecord{rec})}, 5))

	out := tr.Output()
	assert.Contains(t, out, "this message is definitely longer than fifty chara...")
	assert.NotContains(t, out, "in total")
	assert.Contains(t, out, " - ")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Java", titleCase("java"))
	assert.Equal(t, "Unknown", titleCase("unknown"))
}
