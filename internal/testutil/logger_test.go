package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCaptureLogger(t *testing.T) {
	logger, buf := NewCaptureLogger()

	logger.Debug("file truncated", "path", "app.log")
	logger.Info("records extracted", "count", 2)

	out := buf.String()
	assert.Contains(t, out, `msg="file truncated"`)
	assert.Contains(t, out, "path=app.log")
	assert.Contains(t, out, "count=2")
}

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger(t)
	assert.True(t, logger.Enabled(t.Context(), -4))
}
