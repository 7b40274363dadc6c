package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mydoor3520/log-detective/pkg/core"
)

// JVM patterns. Structural matches are case-sensitive.
var (
	// java.lang.NullPointerException: message
	// Exception in thread "main" java.lang.RuntimeException: message
	javaHeaderPattern = regexp.MustCompile(
		`^(?:Exception in thread "([^"]+)"\s+)?` +
			`([\w.$]+(?:Exception|Error|Throwable))` +
			`(?::\s*(.*))?$`)

	// at com.example.MyClass.myMethod(MyClass.java:42)
	// at java.base@17/java.lang.Thread.run(Thread.java:833)
	// at com.example.MyClass.myMethod(Native Method)
	// at com.example.MyClass.myMethod(MyClass.java:42) ~[app.jar:1.0]
	javaFramePattern = regexp.MustCompile(
		`^at\s+` +
			`(?:[\w.$@/-]+/)?` + // module or class loader qualifier
			`([\w.$<>]+)\.` + // class
			`([\w$<>]+)` + // method
			`\(([^:)]+)(?::(\d+))?\)` + // file or synthetic marker, optional line
			`(?:\s+~?\[[^\]]*\])?$`) // logback packaging data

	javaCausedByPattern = regexp.MustCompile(
		`^Caused by:\s+([\w.$]+(?:Exception|Error|Throwable))(?::\s*(.*))?$`)

	// ... 12 more
	javaMorePattern = regexp.MustCompile(`^\s*\.\.\.\s*\d+\s+more\s*$`)

	// log4j / logback: 2024-01-15 10:30:45,123 [main] ERROR com.example.App - message
	javaLogLinePattern = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2}[T\s]\d{2}:\d{2}:\d{2}(?:[.,]\d{3})?)\s*` +
			`(?:\[([^\]]+)\])?\s*` +
			`(ERROR|WARN|INFO|DEBUG|TRACE)\s+` +
			`(?:([\w.]+)\s*[-:]?\s*)?` +
			`(.*)$`)
)

// Quick checks used by CanHandle.
var javaSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?m)at\s+[\w.$]+\.\w+\([^)]+\.java:\d+\)`),
	regexp.MustCompile(`(?m)[\w.$]+(?:Exception|Error):`),
	regexp.MustCompile(`(?m)^[\w.$]+(?:Exception|Error)$`),
	regexp.MustCompile(`(?m)Caused by:`),
}

// Locations printed when the JVM has no source position for a frame.
var javaSyntheticLocations = map[string]bool{
	"Unknown Source": true,
	"Native Method":  true,
}

var javaCriticalTypes = []string{
	"OutOfMemoryError", "StackOverflowError", "VirtualMachineError",
	"LinkageError", "ThreadDeath", "AssertionError",
}

// JavaExtractor extracts JVM-style exceptions and stack traces.
type JavaExtractor struct{}

// Ecosystem implements Extractor.
func (JavaExtractor) Ecosystem() core.Ecosystem {
	return core.EcosystemJava
}

// CanHandle implements Extractor.
func (JavaExtractor) CanHandle(text string) bool {
	for _, re := range javaSignals {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// logPrefix is the metadata carried by a recognised log-line prefix.
type logPrefix struct {
	timestamp string
	thread    string
	logger    string
}

// Extract implements Extractor.
func (e JavaExtractor) Extract(text string) []core.ErrorRecord {
	records := make([]core.ErrorRecord, 0)
	lines := splitLines(text)

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}

		if m := javaLogLinePattern.FindStringSubmatchIndex(line); m != nil {
			prefix := logPrefix{
				timestamp: submatch(line, m, 1),
				thread:    submatch(line, m, 2),
				logger:    submatch(line, m, 4),
			}

			// Exception inline in the log message.
			if message := submatch(line, m, 5); javaHeaderPattern.MatchString(message) {
				rec, next := e.block(lines, i, message, prefix)
				records = append(records, rec)
				i = next
				continue
			}

			// Exception on the line after the log message.
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if javaHeaderPattern.MatchString(next) {
					rec, after := e.block(lines, i+1, next, prefix)
					records = append(records, rec)
					i = after
					continue
				}
			}

			i++
			continue
		}

		if javaHeaderPattern.MatchString(line) {
			rec, next := e.block(lines, i, line, logPrefix{})
			records = append(records, rec)
			i = next
			continue
		}

		i++
	}

	return records
}

// block consumes one exception block whose header text is header and whose
// first raw line is lines[start]. It returns the record and the index of the
// first line not consumed.
func (e JavaExtractor) block(lines []string, start int, header string, prefix logPrefix) (core.ErrorRecord, int) {
	m := javaHeaderPattern.FindStringSubmatch(header)
	threadName := prefix.thread
	if threadName == "" {
		threadName = m[1]
	}
	errorType := m[2]

	raw := []string{lines[start]}
	frames := make([]core.StackFrame, 0)

	i := start + 1
	for i < len(lines) {
		current := lines[i]
		stripped := strings.TrimSpace(current)

		if fm := javaFramePattern.FindStringSubmatch(stripped); fm != nil {
			if !javaSyntheticLocations[fm[3]] {
				frames = append(frames, javaFrame(fm))
			}
			raw = append(raw, current)
			i++
			continue
		}

		// A chained cause ends the block and is not represented.
		if javaCausedByPattern.MatchString(stripped) {
			break
		}

		if javaMorePattern.MatchString(current) {
			raw = append(raw, current)
			i++
			continue
		}

		if stripped == "" {
			i++
			continue
		}

		break
	}

	return core.ErrorRecord{
		ErrorType:   errorType,
		Message:     m[3],
		Severity:    javaSeverity(errorType),
		Ecosystem:   core.EcosystemJava,
		StackFrames: frames,
		RawText:     strings.Join(raw, "\n"),
		Timestamp:   optional(prefix.timestamp),
		ThreadName:  optional(threadName),
		LoggerName:  optional(prefix.logger),
	}, i
}

func javaFrame(fm []string) core.StackFrame {
	frame := core.StackFrame{
		FilePath:   fm[3],
		ClassName:  optional(fm[1]),
		MethodName: optional(fm[2]),
	}
	if fm[4] != "" {
		if n, err := strconv.Atoi(fm[4]); err == nil {
			frame.LineNumber = &n
		}
	}
	return frame
}

func javaSeverity(errorType string) core.Severity {
	if containsAny(errorType, javaCriticalTypes) {
		return core.SeverityCritical
	}
	// Any other *Error type is still a JVM error, not an exception.
	if strings.Contains(errorType, "Error") {
		return core.SeverityCritical
	}
	return core.SeverityError
}

// submatch returns group n of a FindStringSubmatchIndex result, or "".
func submatch(s string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}
