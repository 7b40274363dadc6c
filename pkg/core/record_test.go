package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleRecord() ErrorRecord {
	return ErrorRecord{
		ErrorType: "java.lang.NullPointerException",
		Message:   "boom",
		Severity:  SeverityError,
		Ecosystem: EcosystemJava,
		StackFrames: []StackFrame{
			{FilePath: "UserService.java", LineNumber: ptr(42), MethodName: ptr("getUser"), ClassName: ptr("com.example.UserService")},
			{FilePath: "UserController.java", LineNumber: ptr(28), MethodName: ptr("show"), ClassName: ptr("com.example.UserController")},
		},
		RawText:    "java.lang.NullPointerException: boom",
		ThreadName: ptr("main"),
	}
}

func TestErrorRecord_RootCause(t *testing.T) {
	rec := sampleRecord()

	require.NotNil(t, rec.RootCauseFrame())
	assert.Equal(t, "UserService.java", rec.RootCauseFrame().FilePath)
	assert.Equal(t, "UserService.java", *rec.FilePath())
	assert.Equal(t, 42, *rec.LineNumber())

	// Derived values are copies.
	*rec.FilePath() = "changed"
	assert.Equal(t, "UserService.java", rec.StackFrames[0].FilePath)
}

func TestErrorRecord_RootCauseWithoutFrames(t *testing.T) {
	rec := ErrorRecord{ErrorType: "ValueError", StackFrames: []StackFrame{}}

	assert.Nil(t, rec.RootCauseFrame())
	assert.Nil(t, rec.FilePath())
	assert.Nil(t, rec.LineNumber())
}

func TestErrorRecord_LineNumberMissingOnFrame(t *testing.T) {
	rec := ErrorRecord{StackFrames: []StackFrame{{FilePath: "Gen.java"}}}

	assert.Equal(t, "Gen.java", *rec.FilePath())
	assert.Nil(t, rec.LineNumber())
}

func TestErrorRecord_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"error_type": "java.lang.NullPointerException",
		"message": "boom",
		"severity": "error",
		"language": "java",
		"timestamp": null,
		"thread_name": "main",
		"logger_name": null,
		"file_path": "UserService.java",
		"line_number": 42,
		"stack_frames": [
			{"file_path": "UserService.java", "line_number": 42, "method_name": "getUser", "class_name": "com.example.UserService", "code_context": null},
			{"file_path": "UserController.java", "line_number": 28, "method_name": "show", "class_name": "com.example.UserController", "code_context": null}
		],
		"raw_text": "java.lang.NullPointerException: boom"
	}`, string(data))
}

func TestErrorRecord_MarshalJSONFieldOrder(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	keys := []string{
		`"error_type"`, `"message"`, `"severity"`, `"language"`, `"timestamp"`,
		`"thread_name"`, `"logger_name"`, `"file_path"`, `"line_number"`,
		`"stack_frames"`, `"raw_text"`,
	}
	last := -1
	for _, key := range keys {
		idx := strings.Index(string(data), key)
		require.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}
}

func TestErrorRecord_MarshalJSONWithoutFrames(t *testing.T) {
	data, err := json.Marshal(ErrorRecord{ErrorType: "ValueError", Message: "bad", Ecosystem: EcosystemPython})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{}, decoded["stack_frames"])
	assert.Nil(t, decoded["file_path"])
	assert.Nil(t, decoded["line_number"])
	assert.Equal(t, "error", decoded["severity"])
	assert.Equal(t, "python", decoded["language"])
}

func TestErrorRecord_UnmarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	var rec ErrorRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, sampleRecord(), rec)
}

func TestErrorRecord_UnmarshalJSONRejectsBadTokens(t *testing.T) {
	var rec ErrorRecord
	assert.Error(t, json.Unmarshal([]byte(`{"severity": "fatal"}`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`{"severity": "error", "language": "cobol"}`), &rec))
}

func TestStackFrame_Rendering(t *testing.T) {
	tests := []struct {
		name         string
		frame        StackFrame
		wantString   string
		wantLocation string
		wantMethod   string
	}{
		{
			name:         "jvm frame",
			frame:        StackFrame{FilePath: "A.java", LineNumber: ptr(3), MethodName: ptr("run"), ClassName: ptr("com.example.A")},
			wantString:   "com.example.A.run() at A.java:3",
			wantLocation: "A.java:3",
			wantMethod:   "com.example.A.run",
		},
		{
			name:         "python frame",
			frame:        StackFrame{FilePath: "calc.py", LineNumber: ptr(5), MethodName: ptr("divide")},
			wantString:   "divide() at calc.py:5",
			wantLocation: "calc.py:5",
			wantMethod:   "divide",
		},
		{
			name:         "file only",
			frame:        StackFrame{FilePath: "Gen.java"},
			wantString:   "Gen.java",
			wantLocation: "Gen.java",
			wantMethod:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantString, tt.frame.String())
			assert.Equal(t, tt.wantLocation, tt.frame.Location())
			assert.Equal(t, tt.wantMethod, tt.frame.Method())
		})
	}
}

func TestSeverity(t *testing.T) {
	var zero Severity
	assert.Equal(t, SeverityError, zero)

	for _, s := range []Severity{SeverityCritical, SeverityError, SeverityWarning, SeverityInfo} {
		parsed, ok := ParseSeverity(strings.ToUpper(s.String()))
		assert.True(t, ok)
		assert.Equal(t, s, parsed)
	}

	parsed, ok := ParseSeverity("fatal")
	assert.False(t, ok)
	assert.Equal(t, SeverityError, parsed)
	assert.Equal(t, "unknown", Severity(99).String())
}

func TestEcosystem(t *testing.T) {
	eco, ok := ParseEcosystem(" Python ")
	assert.True(t, ok)
	assert.Equal(t, EcosystemPython, eco)
	assert.True(t, eco.IsKnown())

	eco, ok = ParseEcosystem("ruby")
	assert.False(t, ok)
	assert.Equal(t, EcosystemUnknown, eco)
	assert.False(t, eco.IsKnown())

	assert.Equal(t, "unknown", Ecosystem("").String())
}
