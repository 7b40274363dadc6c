package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// =============================================================================
// StackFrame
// =============================================================================

// StackFrame is one call site in an extracted trace.
// Optional fields are nil when the source text did not carry them.
type StackFrame struct {
	// FilePath is the file or module path printed for the frame.
	FilePath string `json:"file_path"`
	// LineNumber is the 1-based source line, if printed.
	LineNumber *int `json:"line_number"`
	// MethodName is the function or method executing at this frame.
	MethodName *string `json:"method_name"`
	// ClassName is the declaring class (JVM frames only).
	ClassName *string `json:"class_name"`
	// CodeContext is the source line printed beneath a Python frame.
	CodeContext *string `json:"code_context"`
}

// String renders the frame as "Class.method() at file:line".
func (f StackFrame) String() string {
	var b strings.Builder
	if method := f.Method(); method != "" {
		b.WriteString(method)
		b.WriteString("()")
	}
	if f.FilePath != "" {
		if b.Len() > 0 {
			b.WriteString(" at ")
		}
		b.WriteString(f.Location())
	}
	return b.String()
}

// Location returns "file:line", or just the file when no line is known.
func (f StackFrame) Location() string {
	if f.LineNumber == nil || *f.LineNumber == 0 {
		return f.FilePath
	}
	return f.FilePath + ":" + strconv.Itoa(*f.LineNumber)
}

// Method returns "Class.method" when a class is known, else the bare method name.
func (f StackFrame) Method() string {
	method := ""
	if f.MethodName != nil {
		method = *f.MethodName
	}
	if f.ClassName != nil && *f.ClassName != "" {
		return *f.ClassName + "." + method
	}
	return method
}

// =============================================================================
// ErrorRecord
// =============================================================================

// ErrorRecord is one error occurrence extracted from log text.
//
// StackFrames is ordered root-cause-first: index 0 is the frame where the
// fault manifested, whatever order the source runtime printed it in.
type ErrorRecord struct {
	ErrorType   string
	Message     string
	Severity    Severity
	Ecosystem   Ecosystem
	StackFrames []StackFrame
	// RawText is the verbatim slice of input lines the record came from.
	RawText string

	// Populated from a recognised log-line prefix, if any.
	Timestamp  *string
	ThreadName *string
	LoggerName *string
}

// RootCauseFrame returns the frame where the fault manifested, or nil.
func (r *ErrorRecord) RootCauseFrame() *StackFrame {
	if len(r.StackFrames) == 0 {
		return nil
	}
	return &r.StackFrames[0]
}

// FilePath returns the root cause frame's file, or nil.
func (r *ErrorRecord) FilePath() *string {
	frame := r.RootCauseFrame()
	if frame == nil {
		return nil
	}
	path := frame.FilePath
	return &path
}

// LineNumber returns the root cause frame's line, or nil.
func (r *ErrorRecord) LineNumber() *int {
	frame := r.RootCauseFrame()
	if frame == nil || frame.LineNumber == nil {
		return nil
	}
	line := *frame.LineNumber
	return &line
}

// recordJSON is the wire shape shared with existing consumers.
// Field names and order are fixed.
type recordJSON struct {
	ErrorType   string       `json:"error_type"`
	Message     string       `json:"message"`
	Severity    Severity     `json:"severity"`
	Language    Ecosystem    `json:"language"`
	Timestamp   *string      `json:"timestamp"`
	ThreadName  *string      `json:"thread_name"`
	LoggerName  *string      `json:"logger_name"`
	FilePath    *string      `json:"file_path"`
	LineNumber  *int         `json:"line_number"`
	StackFrames []StackFrame `json:"stack_frames"`
	RawText     string       `json:"raw_text"`
}

// MarshalJSON encodes the record in its wire shape, including the derived
// file_path and line_number fields.
func (r ErrorRecord) MarshalJSON() ([]byte, error) {
	frames := r.StackFrames
	if frames == nil {
		frames = []StackFrame{}
	}
	return json.Marshal(recordJSON{
		ErrorType:   r.ErrorType,
		Message:     r.Message,
		Severity:    r.Severity,
		Language:    r.Ecosystem,
		Timestamp:   r.Timestamp,
		ThreadName:  r.ThreadName,
		LoggerName:  r.LoggerName,
		FilePath:    r.FilePath(),
		LineNumber:  r.LineNumber(),
		StackFrames: frames,
		RawText:     r.RawText,
	})
}

// UnmarshalJSON decodes the wire shape. Derived fields are ignored.
func (r *ErrorRecord) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	frames := w.StackFrames
	if frames == nil {
		frames = []StackFrame{}
	}
	*r = ErrorRecord{
		ErrorType:   w.ErrorType,
		Message:     w.Message,
		Severity:    w.Severity,
		Ecosystem:   w.Language,
		StackFrames: frames,
		RawText:     w.RawText,
		Timestamp:   w.Timestamp,
		ThreadName:  w.ThreadName,
		LoggerName:  w.LoggerName,
	}
	return nil
}
