package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFormats(t *testing.T) {
	var text, js bytes.Buffer

	New(&text, &js, slog.LevelInfo, "json").Info("Bills generated", "generated", 3)
	if !strings.Contains(js.String(), `"generated":3`) || text.Len() != 0 {
		t.Errorf("json output = %q, text output = %q", js.String(), text.String())
	}

	js.Reset()
	New(&text, &js, slog.LevelWarn, "text").Info("dropped")
	New(&text, &js, slog.LevelWarn, "text").Warn("Rate setting malformed", "key", "MealRate")
	if strings.Contains(text.String(), "dropped") || !strings.Contains(text.String(), "MealRate") || js.Len() != 0 {
		t.Errorf("text output = %q", text.String())
	}
}
