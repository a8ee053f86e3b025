package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
)

// ─── Construction ───

func TestNewHandlesAllFormats(t *testing.T) {
	for _, format := range []string{"json", "text", "JSON", "garbage", ""} {
		log := New(config.LoggingConfig{Level: "info", Format: format, Output: "stdout"}, "0.1.0")
		if log == nil {
			t.Fatalf("New returned nil for format %q", format)
		}
	}
}

func TestNewHandlesAllOutputs(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "STDERR", ""} {
		log := New(config.LoggingConfig{Level: "debug", Format: "text", Output: output}, "0.1.0")
		if log == nil {
			t.Fatalf("New returned nil for output %q", output)
		}
	}
}

func TestDefaultIsUsableBeforeConfig(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil")
	}
}

// ─── Level Parsing ───

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// ─── Child Loggers ───

func TestWithReturnsIndependentLogger(t *testing.T) {
	parent := New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "0.1.0")

	child := parent.With("component", "coordinator")
	if child == nil {
		t.Fatal("With returned nil")
	}
	if child == parent {
		t.Error("With returned the parent logger unchanged")
	}
}

// ─── Record Shape ───

func TestRecordsCarryServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "ecomax-bridge"),
			slog.String("version", "test"),
		})

	log := &Logger{Logger: slog.New(handler)}
	log.Info("schedule applied", "type", "heating")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	if record["service"] != "ecomax-bridge" {
		t.Errorf("service = %v, want ecomax-bridge", record["service"])
	}
	if record["version"] != "test" {
		t.Errorf("version = %v, want test", record["version"])
	}
	if record["msg"] != "schedule applied" {
		t.Errorf("msg = %v, want schedule applied", record["msg"])
	}
	if record["type"] != "heating" {
		t.Errorf("type = %v, want heating", record["type"])
	}
}

func TestDebugRecordsFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := &Logger{Logger: slog.New(handler)}

	log.Debug("frame received", "bytes", 42)

	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("debug record was not filtered: %s", buf.String())
	}
}
