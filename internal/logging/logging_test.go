package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerWritesJSONWithoutConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "debug"}, &buf)

	LogOrder(WithSymbol(logger, "AAPL"), "o-1", "AAPL", "buy", "filled")

	out := buf.String()
	for _, want := range []string{`"order_id":"o-1"`, `"symbol":"AAPL"`, `"status":"filled"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "warn"}, &buf)
	logger.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info message should be filtered at warn level: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "info"}, &buf)
	ctx := WithLogger(context.Background(), logger)

	l := FromContext(ctx)
	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected logger from context to write")
	}

	// Missing logger falls back to a no-op logger.
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
}
