package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/bidback/backend/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"INFO", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewAndDerivedLoggers(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "json",
	}

	log := New(cfg)
	if log == nil {
		t.Fatal("New returned nil")
	}

	// Derived loggers must be independent instances.
	withField := log.WithField("key", "value")
	if withField == log {
		t.Error("WithField returned the receiver")
	}

	withComponent := log.WithComponent("test")
	if withComponent == nil || withComponent == log {
		t.Error("WithComponent must return a new logger")
	}

	withFields := log.WithFields(map[string]interface{}{"a": 1, "b": "two"})
	if withFields == nil {
		t.Error("WithFields returned nil")
	}

	// Smoke: none of these may panic.
	withField.Debug("debug message")
	withComponent.Info("info message")
	withFields.Warn("warn message")
	log.Infof("formatted %d", 42)
}
