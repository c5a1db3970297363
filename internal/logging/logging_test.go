package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in, zapcore.InfoLevel); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithConsole_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConsole(Config{Level: "warn"}, zapcore.AddSync(&buf))

	logger.Info("hidden")
	logger.Warn("shown", zap.String("key", "value"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "value") {
		t.Errorf("warn line missing from output: %q", out)
	}
}

func TestNewWithConsole_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.log")
	var buf bytes.Buffer
	logger := NewWithConsole(Config{Level: "debug", File: path}, zapcore.AddSync(&buf))

	logger.Debug("to file", zap.Int("n", 3))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) {
		t.Errorf("log file missing JSON entry: %s", data)
	}
	if !strings.Contains(string(data), `"n":3`) {
		t.Errorf("log file missing field: %s", data)
	}
}
