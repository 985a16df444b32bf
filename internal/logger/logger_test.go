package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{}).SetDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 28, cfg.MaxAge)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Output: "stdout", MaxSize: 1}, false},
		{"bad level", Config{Level: "trace", Output: "stderr", MaxSize: 1}, true},
		{"bad output", Config{Level: "info", Output: "syslog", MaxSize: 1}, true},
		{"zero max size", Config{Level: "info", Output: "stderr"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWithFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "netloc.log")

	l, err := New(&Config{Level: "warn", File: file})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l.Warn("written to file")
	_ = l.Sync()

	_, err = os.Stat(file)
	assert.NoError(t, err)
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestConsoleSink(t *testing.T) {
	assert.Equal(t, os.Stderr, consoleSink("stderr"))
	assert.Equal(t, os.Stderr, consoleSink(""))
	assert.Equal(t, os.Stdout, consoleSink("stdout"))
}

func TestNewFileIsJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "netloc.log")

	l, err := New(&Config{Level: "info", File: file})
	require.NoError(t, err)
	l.Info("hello", zap.String("ip", "203.0.113.7"))
	_ = l.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "203.0.113.7", line["ip"])
}
