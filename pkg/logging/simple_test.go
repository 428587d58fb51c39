package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWriter(t *testing.T) {
	s := NewSimpleLogSink(nil, 1, true)
	require.Equal(t, os.Stdout, s.writer)
}

func TestEnabled(t *testing.T) {
	s := NewSimpleLogSink(&bytes.Buffer{}, LEVEL_DEBUG, true)
	assert.True(t, s.Enabled(LEVEL_INFO))
	assert.True(t, s.Enabled(LEVEL_DEBUG))
	assert.False(t, s.Enabled(LEVEL_TRACE))
}

func TestInfoLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 1, false)
	s.Info(0, "Opened DVD media", "device", "/dev/sr0")
	output := buf.String()

	require.Contains(t, output, "[INFO] Opened DVD media")
	require.Contains(t, output, "  device: /dev/sr0")
}

func TestInfoNotLoggedWhenDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, LEVEL_INFO, true)
	s.Info(LEVEL_DEBUG, "This should not be logged", "foo", "bar")
	require.Zero(t, buf.Len())
}

func TestErrorLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 0, false)
	s.Error(errors.New("read failure"), "Error reading sector", "sector", 1234)
	output := buf.String()

	require.Contains(t, output, "[ERROR] Error reading sector")
	require.Contains(t, output, "sector: 1234")
	require.Contains(t, output, "error: read failure")
}

func TestLevelLabels(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 5, false)
	s.Info(LEVEL_DEBUG, "debug line")
	s.Info(LEVEL_TRACE, "trace line")
	s.Info(4, "custom line")
	output := buf.String()

	require.Contains(t, output, "[DEBUG] debug line")
	require.Contains(t, output, "[TRACE] trace line")
	require.Contains(t, output, "[LEVEL 4] custom line")
}

func TestWithName(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 1, true)
	s.WithName("demux").Info(0, "Test message")
	require.Contains(t, buf.String(), "[demux] Test message")
}

func TestChainedWithName(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 1, true)
	chain := s.WithName("dvd").WithName("media").(*SimpleLogSink)
	chain.Info(0, "Chained name")
	require.Contains(t, buf.String(), "[dvd.media]")
}

func TestWithValues(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 1, false)
	derived := s.WithValues("session", "abc").WithName("transfer")
	derived.Info(0, "Transfer started", "sinks", 2)
	output := buf.String()

	require.Contains(t, output, "session: abc")
	require.Contains(t, output, "sinks: 2")
	require.Less(t, bytes.Index(buf.Bytes(), []byte("session")), bytes.Index(buf.Bytes(), []byte("sinks")))

	buf.Reset()
	s.Info(0, "parent untouched")
	require.NotContains(t, buf.String(), "session")
}

func TestNonStringKey(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSimpleLogSink(buf, 1, true)
	s.Info(0, "Non-string key", 123, "value")
	require.Contains(t, buf.String(), "key0: value")
}

func TestInitSetsCallDepth(t *testing.T) {
	s := NewSimpleLogSink(&bytes.Buffer{}, 1, true)
	s.Init(logr.RuntimeInfo{CallDepth: 5})
	require.Equal(t, 5, s.callDepth)
}

func TestLoggerWrapper(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(NewSimpleLogger(buf, LEVEL_DEBUG, false))
	l.Info("info line")
	l.Debug("debug line")
	l.Trace("trace line")
	output := buf.String()

	require.Contains(t, output, "info line")
	require.Contains(t, output, "debug line")
	require.NotContains(t, output, "trace line")
	require.True(t, l.DebugEnabled())

	require.NotPanics(t, func() {
		OrDefault(nil).Info("discarded")
		NewLogger(logr.Logger{}).Info("discarded")
	})
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]int{"": LEVEL_INFO, "info": LEVEL_INFO, "DEBUG": LEVEL_DEBUG, " trace ": LEVEL_TRACE} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)
}
