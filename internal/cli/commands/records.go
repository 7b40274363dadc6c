package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mydoor3520/log-detective/internal/cli/output"
	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

// messageWidth is the number of message characters shown in table rows.
const messageWidth = 50

// renderDocuments writes parse results in the renderer's effective mode.
// A single document is written as a JSON object, several as an array.
func renderDocuments(r *output.Renderer, docs []extract.Document, maxFrames int) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		if len(docs) == 1 {
			return r.JSON(docs[0])
		}
		return r.JSON(docs)
	}

	for i, doc := range docs {
		if len(docs) > 1 {
			if i > 0 {
				r.Println()
			}
			r.Header(1, doc.Source)
		}
		renderDocument(r, mode, doc, maxFrames)
	}
	return nil
}

func renderDocument(r *output.Renderer, mode output.OutputMode, doc extract.Document, maxFrames int) {
	if doc.ErrorCount == 0 {
		r.Muted(fmt.Sprintf("No errors found (detected language: %s)", doc.Language))
		return
	}

	switch mode {
	case output.ModeTable:
		renderTable(r, doc)
	case output.ModeMarkdown:
		renderMarkdown(r, doc, maxFrames)
	default:
		renderText(r, doc, maxFrames)
	}
}

// renderTable writes one row per record.
func renderTable(r *output.Renderer, doc extract.Document) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Parsed Errors (%s)", doc.Language))
	t.AppendHeader(table.Row{"#", "Type", "Message", "File", "Line"})

	for i := range doc.Errors {
		rec := &doc.Errors[i]
		file, line := "-", "-"
		if p := rec.FilePath(); p != nil && *p != "" {
			file = *p
		}
		if n := rec.LineNumber(); n != nil {
			line = strconv.Itoa(*n)
		}
		t.AppendRow(table.Row{i + 1, rec.ErrorType, output.Truncate(rec.Message, messageWidth), file, line})
	}
	t.Render()
}

// renderText writes one bordered panel per record.
func renderText(r *output.Renderer, doc extract.Document, maxFrames int) {
	styles := r.Styles()
	r.Println(styles.Bold.Render(fmt.Sprintf("Found %d error(s) (language: %s)", doc.ErrorCount, titleCase(doc.Language.String()))))
	r.Println()

	for i := range doc.Errors {
		rec := &doc.Errors[i]

		var body strings.Builder
		body.WriteString(styles.Bold.Render(fmt.Sprintf("Error #%d", i+1)))
		body.WriteString("  ")
		body.WriteString(severityStyle(styles, rec.Severity).Render("Severity: " + strings.ToUpper(rec.Severity.String())))
		body.WriteString("\n\n")
		body.WriteString(styles.Error.Render(rec.ErrorType))
		if rec.Message != "" {
			body.WriteString(": " + rec.Message)
		}

		if len(rec.StackFrames) > 0 {
			body.WriteString("\n\n")
			body.WriteString(styles.Bold.Render("Stack Trace:"))
			for _, line := range frameLines(rec.StackFrames, maxFrames) {
				body.WriteString("\n")
				switch {
				case line.context:
					body.WriteString(styles.Code.Render(line.text))
				case line.more:
					body.WriteString(styles.Muted.Render(line.text))
				default:
					body.WriteString(styles.Location.Render(line.text))
				}
			}
		}

		r.Println(styles.Panel.Render(body.String()))
	}
}

// renderMarkdown writes headings, key-value lists and code blocks.
func renderMarkdown(r *output.Renderer, doc extract.Document, maxFrames int) {
	r.Println(output.FormatHeader(2, fmt.Sprintf("Parsed Errors (%s)", doc.Language)))
	r.Println()
	r.Printf("Found %d error(s).\n", doc.ErrorCount)

	for i := range doc.Errors {
		rec := &doc.Errors[i]
		r.Println()
		r.Println(output.FormatHeader(3, fmt.Sprintf("Error #%d: %s", i+1, rec.ErrorType)))
		r.Println()
		r.Println(output.FormatKeyValue("Severity", rec.Severity.String()))
		if rec.Message != "" {
			r.Println(output.FormatKeyValue("Message", rec.Message))
		}
		if frame := rec.RootCauseFrame(); frame != nil {
			r.Println(output.FormatKeyValue("Location", "`"+frame.Location()+"`"))
		}
		for _, kv := range []struct {
			key   string
			value *string
		}{
			{"Timestamp", rec.Timestamp},
			{"Thread", rec.ThreadName},
			{"Logger", rec.LoggerName},
		} {
			if kv.value != nil {
				r.Println(output.FormatKeyValue(kv.key, *kv.value))
			}
		}

		if len(rec.StackFrames) > 0 {
			lines := frameLines(rec.StackFrames, maxFrames)
			texts := make([]string, len(lines))
			for j, line := range lines {
				texts[j] = line.text
			}
			r.Println()
			r.Println(output.FormatCodeBlock("", strings.Join(texts, "\n")))
		}
	}
}

// frameLine is one rendered line of a stack listing.
type frameLine struct {
	text    string
	context bool
	more    bool
}

// frameLines lists up to maxFrames frames, root cause first and marked with
// an arrow. maxFrames <= 0 lists every frame.
func frameLines(frames []core.StackFrame, maxFrames int) []frameLine {
	shown := frames
	if maxFrames > 0 && len(frames) > maxFrames {
		shown = frames[:maxFrames]
	}

	lines := make([]frameLine, 0, len(shown)+1)
	for i, f := range shown {
		prefix := "    "
		if i == 0 {
			prefix = "  → "
		}
		text := f.Location()
		if method := f.Method(); method != "" {
			text += " in " + method
		}
		lines = append(lines, frameLine{text: prefix + text})
		if f.CodeContext != nil && *f.CodeContext != "" {
			lines = append(lines, frameLine{text: "       " + *f.CodeContext, context: true})
		}
	}
	if rest := len(frames) - len(shown); rest > 0 {
		lines = append(lines, frameLine{text: fmt.Sprintf("    ... and %d more frames", rest), more: true})
	}
	return lines
}

func severityStyle(styles *output.Styles, sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityCritical:
		return styles.Critical
	case core.SeverityError:
		return styles.Error
	case core.SeverityWarning:
		return styles.Warning
	default:
		return styles.Info
	}
}

// titleCase capitalises an ecosystem name for display.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
