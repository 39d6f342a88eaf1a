package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-research/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return &Logger{zlog: zerolog.New(buf).With().Timestamp().Logger()}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v (%s)", err, buf.String())
	}
	return entry
}

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}

			if NewWithWriter(&buf, cfg) == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { logger.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { logger.Info("info message") }, "info message", "info"},
		{"warn", func() { logger.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { logger.Error("error message") }, "error message", "error"},
		{"component", func() { logger.WithComponent("engine").Warn("ratio undefined") }, "ratio undefined", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, entry["level"])
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry["message"])
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithComponent("engine").WithFields(map[string]interface{}{
		"query":   "airline_fundamentals",
		"columns": 64,
	}).Info("query built")

	entry := decode(t, &buf)
	if entry["component"] != "engine" {
		t.Errorf("Expected component engine, got %v", entry["component"])
	}
	if entry["query"] != "airline_fundamentals" {
		t.Errorf("Expected query field, got %v", entry["query"])
	}
	if entry["columns"] != float64(64) {
		t.Errorf("Expected columns 64, got %v", entry["columns"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithError(errors.New("field not found")).Error("build failed")

	entry := decode(t, &buf)
	if entry["error"] != "field not found" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
}

func TestLogFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{Env: "test", LogLevel: "info", LogFormat: format}

			NewWithWriter(&buf, cfg).Info("test message")

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
			}
		})
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().WithField("k", "v").Info("discarded")
}
