package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetBeforeInit(t *testing.T) {
	mu.Lock()
	prev := globalLogger
	globalLogger = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = prev
		mu.Unlock()
	})

	l := Get()
	require.NotNil(t, l)
	Infof("dropped %d", 1)
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := &Logger{SugaredLogger: zap.New(core).Sugar()}

	child := base.With("scan_id", "abc")
	child.Infof("scan done: %d setups", 2)
	base.Debugf("below level")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scan done: 2 setups", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["scan_id"])
}

func TestInit(t *testing.T) {
	mu.RLock()
	prev := globalLogger
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = prev
		mu.Unlock()
	})

	require.NoError(t, Init("debug", "development"))
	assert.True(t, Get().Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("bogus", "production"))
	assert.False(t, Get().Desugar().Core().Enabled(zapcore.DebugLevel), "unknown level falls back to info")
}
