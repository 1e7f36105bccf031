package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		Init(level)
		if Log == nil {
			t.Errorf("Init(%s) should set Log", level)
		}
	}
}

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "json", "info")

	WithRunID("run-1").Info("settled", "transfers", 2)
	Debug("hidden")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Error("debug message should be filtered at info level")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, line)
	}
	if entry["msg"] != "settled" || entry["run_id"] != "run-1" || entry["transfers"] != float64(2) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInitWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "text", "debug")

	WithService("settlement-svc").Warn("careful")
	if !strings.Contains(buf.String(), "service=settlement-svc") {
		t.Errorf("text output missing attribute: %q", buf.String())
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
		MaxSize:  1,
	})

	Info("test message")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "test message") {
		t.Errorf("log file content = %q", data)
	}
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "json", "debug")

	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	WithRequestID("req").Info("r")

	if got := strings.Count(buf.String(), "\n"); got != 5 {
		t.Errorf("expected 5 lines, got %d", got)
	}
}
