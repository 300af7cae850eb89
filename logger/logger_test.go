package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogLevelMapping(t *testing.T) {
	tests := []struct {
		in   LogLevel
		want zapcore.Level
	}{
		{DebugLevel, zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{WarnLevel, zapcore.WarnLevel},
		{ErrorLevel, zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.zapLevel())
		})
	}
}

func TestBuildWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studio.log")
	l := build(Config{Level: InfoLevel, OutputPath: path, MaxSize: 1})
	l.Info("[Test] hello", String("k", "v"))
	_ = l.Sync() // stdout sync fails on pipes; the file core writes through

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"[Test] hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("not initialised")
		Warn("not initialised")
		Error("not initialised")
		Debug("not initialised")
		assert.NotNil(t, L())
	})
}
