package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"Trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Level: "info", Output: &buf}), "resolve")

	log.Debug().Msg("dropped")
	log.Info().Int64("mapping_set", 7).Msg("loaded")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "idmap" || line["component"] != "resolve" {
		t.Errorf("missing tags: %v", line)
	}
	if line["message"] != "loaded" || line["mapping_set"] != float64(7) {
		t.Errorf("unexpected fields: %v", line)
	}
}

func TestTraceLevelEmitsTraceEvents(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "trace", Output: &buf})
	log.Trace().Str("url", "http://localhost:8080/api/map").Msg("retrying request")
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"trace"`)) {
		t.Fatalf("trace event not written: %q", buf.String())
	}

	buf.Reset()
	log = New(Config{Level: "debug", Output: &buf})
	log.Trace().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("trace event written at debug level: %q", buf.String())
	}
}
