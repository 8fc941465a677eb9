package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chaoskit/internal/chaos"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewReportersPrintOnly(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "greptimedb:4001")

	r, cleanup, err := newReporters(discardLogger(), true, "")
	if err != nil {
		t.Fatalf("newReporters failed: %v", err)
	}
	defer cleanup()

	// print-only must not dial GreptimeDB; recording must succeed locally.
	d := chaos.Decision{
		GateID:    "test-gate",
		Operation: "op.a",
		Outcome:   chaos.OutcomePassthrough,
		Timestamp: time.Now(),
	}
	if err := r.Record(d); err != nil {
		t.Errorf("Record failed: %v", err)
	}
}

func TestNewReportersFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")

	r, cleanup, err := newReporters(discardLogger(), true, path)
	if err != nil {
		t.Fatalf("newReporters failed: %v", err)
	}

	d := chaos.Decision{
		GateID:    "test-gate",
		Operation: "op.a",
		Outcome:   chaos.OutcomeFailed,
		Timestamp: time.Now(),
	}
	if err := r.Record(d); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read decision log: %v", err)
	}
	if !strings.Contains(string(data), `"outcome":"failed"`) {
		t.Errorf("decision log missing outcome: %s", data)
	}
}
