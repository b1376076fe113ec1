package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupTo(&buf, "debug", "json")
	log.Info().Str("component", "test").Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "hello" || entry["component"] != "test" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestSetupToInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = SetupTo(&buf, "loud", "json")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", zerolog.GlobalLevel())
	}
}
