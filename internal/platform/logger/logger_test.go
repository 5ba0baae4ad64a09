package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Level(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		" INFO ": zapcore.InfoLevel,
		"warn":   zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"":       zapcore.WarnLevel,
		"bogus":  zapcore.WarnLevel,
	}
	for level, want := range cases {
		assert.Equal(t, want, Config{Level: level}.zapLevel(), level)
	}
}

func TestConfig_Verbose(t *testing.T) {
	cfg := Config{Level: "warn", Format: "console", Output: "stderr"}
	assert.Equal(t, "warn", cfg.Verbose(false).Level)
	assert.Equal(t, "debug", cfg.Verbose(true).Level)
	assert.Equal(t, "stderr", cfg.Verbose(true).Output)
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "photoctl.log")
	l, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Named("upload").Info("photo uploaded", zap.String("url", "/api/uploads/a.jpg"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"photo uploaded"`)
	assert.Contains(t, string(data), `"logger":"upload"`)
}

func TestNop(t *testing.T) {
	l := Nop().With(zap.String("k", "v"))
	assert.NotPanics(t, func() { l.Error("ignored") })
}
