package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("json logger to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("hello", zap.String("k", "v"))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"k":"v"`)
	})

	t.Run("tees extra cores", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		l, err := New(&Config{Level: "info", Format: "json", Output: "stderr"}, core)
		require.NoError(t, err)

		l.Info("teed")
		assert.Equal(t, 1, recorded.FilterMessage("teed").Len())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestContextLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	t.Run("falls back to nop logger", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
		assert.Empty(t, GetRequestID(context.Background()))
	})

	t.Run("request id is carried by the context", func(t *testing.T) {
		ctx, _ := WithRequestID(context.Background(), base, "req-42")
		assert.Equal(t, "req-42", GetRequestID(ctx))

		FromContext(ctx).Info("scoped")
		entries := recorded.FilterMessage("scoped").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	})

	t.Run("trace context is a no-op without span", func(t *testing.T) {
		assert.Same(t, base, WithTraceContext(context.Background(), base))
	})

	t.Run("For prefers the context logger", func(t *testing.T) {
		fallbackCore, fallbackLogs := observer.New(zapcore.InfoLevel)
		fallback := zap.New(fallbackCore)

		For(context.Background(), fallback).Info("from fallback")
		assert.Equal(t, 1, fallbackLogs.FilterMessage("from fallback").Len())

		ctx, _ := WithRequestID(context.Background(), base, "req-7")
		For(ctx, fallback).Info("from context")
		assert.Equal(t, 0, fallbackLogs.FilterMessage("from context").Len())
		assert.Equal(t, 1, recorded.FilterMessage("from context").Len())
	})
}
