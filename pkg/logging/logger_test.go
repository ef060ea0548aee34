package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"upper case", "ERROR", slog.LevelError},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger.Logger == nil {
		t.Fatal("Default() returned Logger with nil slog.Logger")
	}
	if Default() == logger {
		t.Error("Default() returned the same instance twice")
	}
}

func TestNewWithFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat("info", "json", &buf)
	logger.Info("booking received", "name", "Jean Dupont")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "booking received" {
		t.Fatalf("unexpected msg %v", record["msg"])
	}
	if record["name"] != "Jean Dupont" {
		t.Fatalf("unexpected name attr %v", record["name"])
	}
}

func TestNewWithFormatText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat("debug", "text", &buf)
	logger.Debug("slot check", "slot", "10")

	out := buf.String()
	if !strings.Contains(out, "msg=\"slot check\"") || !strings.Contains(out, "slot=10") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestWithCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat("info", "text", &buf).With("component", "booking")
	logger.Info("hello")

	if !strings.Contains(buf.String(), "component=booking") {
		t.Fatalf("expected component attr in %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("discard logger should not enable debug")
	}
}
