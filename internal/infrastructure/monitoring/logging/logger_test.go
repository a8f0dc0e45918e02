package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestZapLogger_Levels(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_Fields(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)

	l.Info("run finished",
		String("run_id", "abc"),
		Int("clusters", 7),
		Float64("top_score", 0.83),
		Bool("low_confidence", false),
		Duration("elapsed", 2*time.Second),
		Err(errors.New("partial")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["run_id"])
	assert.Equal(t, int64(7), fields["clusters"])
	assert.Equal(t, 0.83, fields["top_score"])
	assert.Equal(t, false, fields["low_confidence"])
	assert.Equal(t, "partial", fields["error"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)

	child := l.With(String("stage", "consensus")).Named("analysis")
	child.Info("cut complete")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "analysis", entries[0].LoggerName)
	assert.Equal(t, "consensus", entries[0].ContextMap()["stage"])

	// Parent is not mutated.
	l.Info("plain")
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestErrField_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	// Must not panic and must return a usable child.
	l.Debug("x")
	l.With(String("k", "v")).Named("n").Error("y")
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, logs := newObservedLogger(zapcore.InfoLevel)
	SetDefault(l)
	Default().Info("via default")
	assert.Len(t, logs.All(), 1)

	// SetDefault(nil) is a no-op.
	SetDefault(nil)
	assert.Equal(t, l, Default())
}
