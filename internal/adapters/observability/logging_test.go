package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerTo_TeesJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var primary, file bytes.Buffer
	lg := NewLoggerTo(&primary, "dev", "info", &file)
	lg.Debug().Msg("hidden")
	lg.Info().Str("business", "acme").Msg("sync finished")

	if primary.Len() == 0 {
		t.Fatalf("expected console output")
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(file.Bytes()), &rec); err != nil {
		t.Fatalf("file output must be one JSON record: %v (%q)", err, file.String())
	}
	if rec["business"] != "acme" || rec["message"] != "sync finished" {
		t.Fatalf("unexpected record %v", rec)
	}
}
