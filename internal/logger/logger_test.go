package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerRespectsLevel(t *testing.T) {
	EnableColor(false)
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestPackageLoggerFollowsConfigure(t *testing.T) {
	EnableColor(false)
	var buf bytes.Buffer
	Configure(&buf, LevelDebug)
	defer Configure(os.Stderr, LevelInfo)

	l := PackageLogger("config::")
	l.Debug("searching %s", "/tmp")

	assert.Contains(t, buf.String(), "config::")
	assert.Contains(t, buf.String(), "searching /tmp")
}

func TestNewIgnoresConfigure(t *testing.T) {
	EnableColor(false)
	var shared, own bytes.Buffer
	Configure(&shared, LevelError)
	defer Configure(os.Stderr, LevelInfo)

	l := New(&own, LevelInfo)
	l.Info("deploying %s", "staging")

	assert.Empty(t, shared.String())
	assert.Contains(t, own.String(), "INFO")
	assert.Contains(t, own.String(), "deploying staging")
}
