package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydoor3520/log-detective/pkg/core"
)

const (
	javaLog = "java.lang.NullPointerException: Cannot invoke method on null\n" +
		"\tat com.example.UserService.getUser(UserService.java:42)\n" +
		"\tat com.example.UserController.show(UserController.java:28)"

	pythonLog = `Traceback (most recent call last):
  File "/app/processor.py", line 25, in process_data
    return data['user_id']
KeyError: 'user_id'`
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantEco   core.Ecosystem
		wantTypes []string
	}{
		{name: "java", text: javaLog, wantEco: core.EcosystemJava, wantTypes: []string{"java.lang.NullPointerException"}},
		{name: "python", text: pythonLog, wantEco: core.EcosystemPython, wantTypes: []string{"KeyError"}},
		{name: "unknown", text: "Some random text without any stack trace patterns", wantEco: core.EcosystemUnknown, wantTypes: []string{}},
		{name: "empty", text: "", wantEco: core.EcosystemUnknown, wantTypes: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eco, records := Parse(tt.text)
			assert.Equal(t, tt.wantEco, eco)
			require.NotNil(t, records)

			types := make([]string, len(records))
			for i, rec := range records {
				types[i] = rec.ErrorType
				assert.Equal(t, eco, rec.Ecosystem)
			}
			assert.Equal(t, tt.wantTypes, types)
		})
	}
}

func TestParseAs(t *testing.T) {
	t.Run("forced ecosystem skips detection", func(t *testing.T) {
		records, err := ParseAs(javaLog, core.EcosystemPython)
		require.NoError(t, err)
		for _, rec := range records {
			assert.Equal(t, core.EcosystemPython, rec.Ecosystem)
		}
	})

	t.Run("matches parse for detected ecosystem", func(t *testing.T) {
		records, err := ParseAs(pythonLog, core.EcosystemPython)
		require.NoError(t, err)
		_, parsed := Parse(pythonLog)
		assert.Equal(t, parsed, records)
	})

	t.Run("unsupported ecosystem", func(t *testing.T) {
		records, err := ParseAs(javaLog, core.EcosystemUnknown)
		require.Error(t, err)
		assert.Nil(t, records)

		var unsupported *UnsupportedEcosystemError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, core.EcosystemUnknown, unsupported.Ecosystem)
		assert.Equal(t, []core.Ecosystem{core.EcosystemJava, core.EcosystemPython}, unsupported.Available)
		assert.Contains(t, err.Error(), "java, python")
	})
}

func TestExtract_Idempotent(t *testing.T) {
	for _, text := range []string{javaLog, pythonLog} {
		_, first := Parse(text)
		_, second := Parse(text)
		assert.Equal(t, first, second)
	}
}

func TestExtract_CRLF(t *testing.T) {
	crlf := "java.lang.IllegalStateException: boom\r\n" +
		"\tat com.example.A.a(A.java:1)\r\n" +
		"\tat com.example.B.b(B.java:2)\r\n"

	eco, records := Parse(crlf)

	assert.Equal(t, core.EcosystemJava, eco)
	require.Len(t, records, 1)
	assert.Equal(t, "boom", records[0].Message)
	assert.Len(t, records[0].StackFrames, 2)
	assert.NotContains(t, records[0].RawText, "\r")
}

func TestForEcosystem(t *testing.T) {
	e, ok := ForEcosystem(core.EcosystemJava)
	require.True(t, ok)
	assert.Equal(t, core.EcosystemJava, e.Ecosystem())

	e, ok = ForEcosystem(core.EcosystemPython)
	require.True(t, ok)
	assert.Equal(t, core.EcosystemPython, e.Ecosystem())

	_, ok = ForEcosystem(core.EcosystemUnknown)
	assert.False(t, ok)
}

func TestEcosystems(t *testing.T) {
	assert.Equal(t, []core.Ecosystem{core.EcosystemJava, core.EcosystemPython}, Ecosystems())
}
