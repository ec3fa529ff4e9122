package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected zerolog.Level
	}{
		{name: "debug", level: LevelDebug, expected: zerolog.DebugLevel},
		{name: "info", level: LevelInfo, expected: zerolog.InfoLevel},
		{name: "warn", level: LevelWarn, expected: zerolog.WarnLevel},
		{name: "warning alias", level: "warning", expected: zerolog.WarnLevel},
		{name: "error", level: LevelError, expected: zerolog.ErrorLevel},
		{name: "mixed case", level: "DEBUG", expected: zerolog.DebugLevel},
		{name: "unknown defaults to info", level: "trace2", expected: zerolog.InfoLevel},
		{name: "empty defaults to info", level: "", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := Setup(Config{Level: LevelInfo, Pretty: false, Output: buf})
	logger.Info().Str("endpoint", "/groups").Msg("request")

	out := buf.String()
	if !strings.Contains(out, `"endpoint":"/groups"`) {
		t.Errorf("output missing structured field: %s", out)
	}
	if !strings.Contains(out, `"message":"request"`) {
		t.Errorf("output missing message: %s", out)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := Setup(Config{Level: LevelWarn, Pretty: false, Output: buf})
	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden too")
	logger.Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("suppressed levels leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestNewLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Pretty: false, Output: buf})

	logger := NewLogger("tagger")
	logger.Info().Msg("tagged")

	if !strings.Contains(buf.String(), `"component":"tagger"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}
