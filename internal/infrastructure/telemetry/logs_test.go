package telemetry

import (
	"context"
	"testing"

	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		LogsEnabled: false,
		ServiceName: "layaway-test",
	}, nil)
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	core := lp.NewZapCore(zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, level: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	for _, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
		entry := zapcore.Entry{Level: lvl, Message: lvl.String()}
		if ce := core.Check(entry, nil); ce != nil {
			ce.Write()
		}
	}
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "warn", logs.All()[0].Message)

	with := core.With([]zapcore.Field{{Key: "store_id", Type: zapcore.StringType, String: "s1"}})
	assert.False(t, with.Enabled(zapcore.InfoLevel))
}
