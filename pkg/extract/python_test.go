package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydoor3520/log-detective/pkg/core"
)

func TestPythonExtractor_KeyError(t *testing.T) {
	log := `Traceback (most recent call last):
  File "/app/main.py", line 10, in <module>
    result = process_data(data)
  File "/app/processor.py", line 25, in process_data
    return data['user_id']
KeyError: 'user_id'`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "KeyError", rec.ErrorType)
	assert.Equal(t, "'user_id'", rec.Message)
	assert.Equal(t, core.EcosystemPython, rec.Ecosystem)
	assert.Equal(t, core.SeverityError, rec.Severity)
	assert.Equal(t, log, rec.RawText)
	require.Len(t, rec.StackFrames, 2)

	// Innermost frame comes first.
	first := rec.StackFrames[0]
	assert.Equal(t, "/app/processor.py", first.FilePath)
	assert.Equal(t, 25, *first.LineNumber)
	assert.Equal(t, "process_data", *first.MethodName)
	assert.Nil(t, first.ClassName)
	require.NotNil(t, first.CodeContext)
	assert.Equal(t, "return data['user_id']", *first.CodeContext)

	second := rec.StackFrames[1]
	assert.Equal(t, "/app/main.py", second.FilePath)
	assert.Equal(t, "<module>", *second.MethodName)
	assert.Equal(t, "result = process_data(data)", *second.CodeContext)

	assert.Equal(t, "/app/processor.py", *rec.FilePath())
	assert.Equal(t, 25, *rec.LineNumber())
}

func TestPythonExtractor_FrameOrderIsReversed(t *testing.T) {
	log := `Traceback (most recent call last):
  File "outer.py", line 1, in a
  File "inner.py", line 2, in b
ValueError: bad`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	frames := records[0].StackFrames
	require.Len(t, frames, 2)
	assert.Equal(t, "inner.py", frames[0].FilePath)
	assert.Equal(t, "outer.py", frames[1].FilePath)
	assert.Nil(t, frames[0].CodeContext)
}

func TestPythonExtractor_CodeContext(t *testing.T) {
	log := `Traceback (most recent call last):
  File "calc.py", line 5, in divide
    return a / b
ZeroDivisionError: division by zero`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	require.Len(t, records[0].StackFrames, 1)
	frame := records[0].StackFrames[0]
	assert.Equal(t, "calc.py", frame.FilePath)
	assert.Equal(t, "return a / b", *frame.CodeContext)
	assert.Equal(t, "ZeroDivisionError", records[0].ErrorType)
	assert.Equal(t, "division by zero", records[0].Message)
}

func TestPythonExtractor_CaretMarkersDoNotEndBlock(t *testing.T) {
	log := `Traceback (most recent call last):
  File "calc.py", line 5, in divide
    return a / b
           ~~^~~
ZeroDivisionError: division by zero`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	assert.Equal(t, "ZeroDivisionError", records[0].ErrorType)
	assert.Equal(t, "return a / b", *records[0].StackFrames[0].CodeContext)
	assert.Contains(t, records[0].RawText, "~~^~~")
}

func TestPythonExtractor_IncompleteTraceback(t *testing.T) {
	log := `Traceback (most recent call last):
  File "app.py", line 3, in run
    do_work()`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, IncompleteErrorType, rec.ErrorType)
	assert.Equal(t, IncompleteMessage, rec.Message)
	assert.Equal(t, core.SeverityError, rec.Severity)
	require.Len(t, rec.StackFrames, 1)
	assert.Equal(t, "app.py", rec.StackFrames[0].FilePath)
}

func TestPythonExtractor_BannerWithoutFrames(t *testing.T) {
	assert.Empty(t, PythonExtractor{}.Extract("Traceback (most recent call last):"))
	assert.Empty(t, PythonExtractor{}.Extract("Traceback (most recent call last):\nnot a frame"))
}

func TestPythonSeverity(t *testing.T) {
	tests := []struct {
		errorType string
		want      core.Severity
	}{
		{"MemoryError", core.SeverityCritical},
		{"RecursionError", core.SeverityCritical},
		{"SystemExit", core.SeverityCritical},
		{"KeyboardInterrupt", core.SeverityCritical},
		{"SystemError", core.SeverityCritical},
		{"UserWarning", core.SeverityWarning},
		{"DeprecationWarning", core.SeverityWarning},
		{"ResourceWarning", core.SeverityWarning},
		{"KeyError", core.SeverityError},
		{"requests.exceptions.ConnectionError", core.SeverityError},
		{"StopIteration", core.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			assert.Equal(t, tt.want, pythonSeverity(tt.errorType))
		})
	}
}

func TestPythonExtractor_SeverityFromTraceback(t *testing.T) {
	tests := []struct {
		name string
		last string
		want core.Severity
	}{
		{name: "warning", last: "UserWarning: careful", want: core.SeverityWarning},
		{name: "memory", last: "MemoryError", want: core.SeverityCritical},
		{name: "recursion", last: "RecursionError: maximum recursion depth exceeded", want: core.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := "Traceback (most recent call last):\n  File \"a.py\", line 1, in f\n" + tt.last
			records := PythonExtractor{}.Extract(log)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].Severity)
		})
	}
}

func TestPythonExtractor_ControlFlowTypes(t *testing.T) {
	log := `Traceback (most recent call last):
  File "cli.py", line 12, in main
    loop()
KeyboardInterrupt`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	assert.Equal(t, "KeyboardInterrupt", records[0].ErrorType)
	assert.Empty(t, records[0].Message)
	assert.Equal(t, core.SeverityCritical, records[0].Severity)
}

func TestPythonExtractor_ChainedTracebacks(t *testing.T) {
	log := `Traceback (most recent call last):
  File "a.py", line 1, in f
KeyError: 'x'

During handling of the above exception, another exception occurred:

Traceback (most recent call last):
  File "b.py", line 2, in g
ValueError: y`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 2)
	assert.Equal(t, "KeyError", records[0].ErrorType)
	assert.Equal(t, "ValueError", records[1].ErrorType)
	assert.Equal(t, "b.py", records[1].StackFrames[0].FilePath)
}

func TestPythonExtractor_ChainMarkerEndsIncompleteBlock(t *testing.T) {
	log := `Traceback (most recent call last):
  File "a.py", line 1, in f
The above exception was the direct cause of the following exception:
Traceback (most recent call last):
  File "b.py", line 2, in g
RuntimeError: wrapped`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 2)
	assert.Equal(t, IncompleteErrorType, records[0].ErrorType)
	assert.Equal(t, "RuntimeError", records[1].ErrorType)
}

func TestPythonExtractor_StandaloneExceptionLine(t *testing.T) {
	log := "processing batch 7\n" +
		"ValueError: invalid literal for int() with base 10: 'abc'\n" +
		"done"

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "ValueError", rec.ErrorType)
	assert.Equal(t, "invalid literal for int() with base 10: 'abc'", rec.Message)
	assert.Empty(t, rec.StackFrames)
	assert.NotNil(t, rec.StackFrames)
	assert.Nil(t, rec.FilePath())
}

func TestPythonExtractor_LogLinePrefix(t *testing.T) {
	log := `2024-01-15 10:30:45,123 - ERROR - myapp.service - Request failed
Traceback (most recent call last):
  File "service.py", line 8, in handle
    raise ConnectionError("refused")
ConnectionError: refused`

	records := PythonExtractor{}.Extract(log)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "ConnectionError", rec.ErrorType)
	assert.Equal(t, strPtr("2024-01-15 10:30:45,123"), rec.Timestamp)
	assert.Equal(t, strPtr("myapp.service"), rec.LoggerName)
	assert.Nil(t, rec.ThreadName)
	assert.NotContains(t, rec.RawText, "Request failed")
}

func TestPythonExtractor_CanHandle(t *testing.T) {
	e := PythonExtractor{}
	assert.Equal(t, core.EcosystemPython, e.Ecosystem())
	assert.True(t, e.CanHandle("Traceback (most recent call last):"))
	assert.True(t, e.CanHandle(`  File "x.py", line 3, in run`))
	assert.True(t, e.CanHandle("TypeError: unsupported operand"))
	assert.False(t, e.CanHandle("\tat com.example.Test.test(Test.java:10)"))
	assert.False(t, e.CanHandle("plain text"))
}

func TestPythonExtractor_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"Traceback (most recent call last):\n",
		`  File "x.py", line 99999999999999999999, in f`,
		"Traceback (most recent call last):\n  File \"x.py\", line 1, in f\n\n\n",
		"2024-01-15 10:30:45 - ERROR -",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { PythonExtractor{}.Extract(in) }, "input %q", in)
	}
}
