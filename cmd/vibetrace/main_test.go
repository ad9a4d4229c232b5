package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupLogging_WritesJSONToGivenWriter(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	setupLogging(&buf, "warn")

	slog.Info("dropped")
	slog.Warn("kept", "repo", "acme/api")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line at warn level, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["msg"] != "kept" || entry["repo"] != "acme/api" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
