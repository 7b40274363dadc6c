package extract

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mydoor3520/log-detective/pkg/core"
)

// Sentinel values for a traceback that never reached its exception line.
const (
	IncompleteErrorType = "Unknown"
	IncompleteMessage   = "Incomplete traceback"
)

// Python patterns. Structural matches are case-sensitive.
var (
	pyBannerPattern = regexp.MustCompile(`^Traceback \(most recent call last\):$`)

	// File "path/to/file.py", line 42, in function_name
	pyFramePattern = regexp.MustCompile(`^\s*File "([^"]+)", line (\d+), in (.+)$`)

	// source line printed beneath a frame
	pyContextPattern = regexp.MustCompile(`^\s{4,}(.+)$`)

	// KeyError: 'user_id'
	pyExceptionPattern = regexp.MustCompile(`^([\w.]+(?:Error|Exception|Warning)?):?\s*(.*)$`)

	// 2024-01-15 10:30:45,123 - ERROR - module_name - message
	pyLogLinePattern = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}(?:[.,]\d{3})?)\s*` +
			`[-\s]*` +
			`(ERROR|WARNING|WARN|INFO|DEBUG|CRITICAL)\s*` +
			`[-\s]*` +
			`(?:([\w.]+)\s*[-\s]*)?` +
			`(.*)$`)
)

// Quick checks used by CanHandle.
var pySignals = []*regexp.Regexp{
	regexp.MustCompile(`(?m)Traceback \(most recent call last\):`),
	regexp.MustCompile(`(?m)File "[^"]+", line \d+, in`),
	regexp.MustCompile(`(?m)^[\w.]+Error:`),
	regexp.MustCompile(`(?m)^[\w.]+Exception:`),
}

// Phrases that introduce a chained traceback.
var pyChainMarkers = []string{
	"During handling of",
	"The above exception",
}

var (
	pyExceptionSuffixes = []string{"Error", "Exception", "Warning"}
	pyControlFlowTypes  = []string{"KeyboardInterrupt", "SystemExit", "GeneratorExit", "StopIteration"}

	pyCriticalTypes = []string{"SystemExit", "KeyboardInterrupt", "MemoryError", "RecursionError", "SystemError"}
	pyWarningTypes  = []string{"Warning", "DeprecationWarning", "FutureWarning", "UserWarning"}
)

// PythonExtractor extracts Python tracebacks.
type PythonExtractor struct{}

// Ecosystem implements Extractor.
func (PythonExtractor) Ecosystem() core.Ecosystem {
	return core.EcosystemPython
}

// CanHandle implements Extractor.
func (PythonExtractor) CanHandle(text string) bool {
	for _, re := range pySignals {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Extract implements Extractor.
func (e PythonExtractor) Extract(text string) []core.ErrorRecord {
	records := make([]core.ErrorRecord, 0)
	lines := splitLines(text)

	i := 0
	for i < len(lines) {
		line := lines[i]
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			i++
			continue
		}

		if m := pyLogLinePattern.FindStringSubmatch(stripped); m != nil {
			if i+1 < len(lines) && pyBannerPattern.MatchString(strings.TrimSpace(lines[i+1])) {
				rec, ok, next := e.block(lines, i+1, logPrefix{timestamp: m[1], logger: m[3]})
				if ok {
					records = append(records, rec)
				}
				i = next
				continue
			}
			i++
			continue
		}

		if pyBannerPattern.MatchString(stripped) {
			rec, ok, next := e.block(lines, i, logPrefix{})
			if ok {
				records = append(records, rec)
			}
			i = next
			continue
		}

		// An exception line printed without a traceback.
		if m := pyExceptionPattern.FindStringSubmatch(stripped); m != nil && isPythonExceptionType(m[1]) {
			records = append(records, core.ErrorRecord{
				ErrorType:   m[1],
				Message:     m[2],
				Severity:    pythonSeverity(m[1]),
				Ecosystem:   core.EcosystemPython,
				StackFrames: make([]core.StackFrame, 0),
				RawText:     line,
			})
		}
		i++
	}

	return records
}

// block consumes the traceback whose banner is lines[start]. It reports
// whether a record was produced and the index of the first line not consumed.
func (e PythonExtractor) block(lines []string, start int, prefix logPrefix) (core.ErrorRecord, bool, int) {
	raw := []string{lines[start]}
	frames := make([]core.StackFrame, 0)

	var pending *core.StackFrame
	flush := func() {
		if pending != nil {
			frames = append(frames, *pending)
			pending = nil
		}
	}
	record := func(errorType, message string, severity core.Severity) core.ErrorRecord {
		// Tracebacks print the fault site last.
		slices.Reverse(frames)
		return core.ErrorRecord{
			ErrorType:   errorType,
			Message:     message,
			Severity:    severity,
			Ecosystem:   core.EcosystemPython,
			StackFrames: frames,
			RawText:     strings.Join(raw, "\n"),
			Timestamp:   optional(prefix.timestamp),
			LoggerName:  optional(prefix.logger),
		}
	}

	afterHeader := false
	i := start + 1
	for i < len(lines) {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		if fm := pyFramePattern.FindStringSubmatch(stripped); fm != nil {
			flush()
			pending = pythonFrame(fm)
			raw = append(raw, line)
			afterHeader = true
			i++
			continue
		}

		if pending != nil {
			if cm := pyContextPattern.FindStringSubmatch(line); cm != nil {
				// Only the line right after the frame header is its context.
				// Further indented lines (caret markers, wrapped source) stay raw.
				if afterHeader {
					ctx := strings.TrimSpace(cm[1])
					pending.CodeContext = &ctx
				}
				raw = append(raw, line)
				afterHeader = false
				i++
				continue
			}
		}
		afterHeader = false

		if m := pyExceptionPattern.FindStringSubmatch(stripped); m != nil && isPythonExceptionType(m[1]) {
			flush()
			raw = append(raw, line)
			return record(m[1], m[2], pythonSeverity(m[1])), true, i + 1
		}

		if hasAnyPrefix(stripped, pyChainMarkers) {
			break
		}

		if stripped == "" {
			i++
			continue
		}

		break
	}

	flush()
	if len(frames) == 0 {
		return core.ErrorRecord{}, false, i
	}
	return record(IncompleteErrorType, IncompleteMessage, core.SeverityError), true, i
}

func pythonFrame(fm []string) *core.StackFrame {
	frame := &core.StackFrame{
		FilePath:   fm[1],
		MethodName: optional(fm[3]),
	}
	if n, err := strconv.Atoi(fm[2]); err == nil {
		frame.LineNumber = &n
	}
	return frame
}

func isPythonExceptionType(name string) bool {
	for _, suffix := range pyExceptionSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return slices.Contains(pyControlFlowTypes, name)
}

func pythonSeverity(errorType string) core.Severity {
	if containsAny(errorType, pyCriticalTypes) {
		return core.SeverityCritical
	}
	if containsAny(errorType, pyWarningTypes) {
		return core.SeverityWarning
	}
	return core.SeverityError
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
