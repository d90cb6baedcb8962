package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Format = format
			l, err := New(cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := NewForEnvironment(env)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestBuild_TeesExtraCoresAndChangesLevel(t *testing.T) {
	extra, recorded := observer.New(zapcore.DebugLevel)
	cfg := DefaultConfig()
	cfg.Output = "stderr"

	l, level := Build(cfg, extra)

	l.Debug("hidden")
	l.Info("shown")
	require.Len(t, recorded.All(), 2, "extra cores apply their own level")

	assert.Equal(t, zapcore.InfoLevel, level.Level())
	SetLevel(level, "error")
	assert.Equal(t, zapcore.ErrorLevel, level.Level())
	SetLevel(level, "bogus")
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestCreateWriterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := ProductionConfig()
	cfg.Output = path

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("to file")
	require.NoError(t, Sync(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
