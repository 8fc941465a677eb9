package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chaoskit/internal/chaos"
)

func sampleDecision(outcome chaos.Outcome) chaos.Decision {
	return chaos.Decision{
		GateID:          "g1",
		Operation:       "snippets.get",
		Outcome:         outcome,
		Probability:     0.42,
		DelaySeconds:    1.5,
		ErrorRate:       0.25,
		MaxDelaySeconds: 4,
		Timestamp:       time.Unix(0, 0).UTC(),
	}
}

func TestPrefixStable(t *testing.T) {
	cases := map[chaos.Outcome]string{
		chaos.OutcomeFailed:      "CHAOS[error]",
		chaos.OutcomeDelayed:     "CHAOS[delay]",
		chaos.OutcomePassthrough: "CHAOS[pass]",
	}
	for outcome, want := range cases {
		if got := Prefix(outcome); got != want {
			t.Errorf("Prefix(%s) = %q, want %q", outcome, got, want)
		}
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := r.Record(sampleDecision(chaos.OutcomeFailed)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"CHAOS[error]", "operation=snippets.get", "probability=0.42", "error_rate=0.25"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestJSONReporterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf)

	want := sampleDecision(chaos.OutcomeDelayed)
	if err := r.Record(want); err != nil {
		t.Fatalf("Record: %v", err)
	}
	var got chaos.Decision
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFileReporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	r, err := NewFileReporter(path)
	if err != nil {
		t.Fatalf("NewFileReporter: %v", err)
	}
	if err := r.Record(sampleDecision(chaos.OutcomeFailed)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Record(sampleDecision(chaos.OutcomeDelayed)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	var d chaos.Decision
	if err := json.Unmarshal([]byte(lines[0]), &d); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if d.Outcome != chaos.OutcomeFailed {
		t.Fatalf("first outcome = %s, want failed", d.Outcome)
	}
}

type collectReporter struct {
	decisions []chaos.Decision
	err       error
}

func (c *collectReporter) Record(d chaos.Decision) error {
	c.decisions = append(c.decisions, d)
	return c.err
}

func TestMultiReporterFanOut(t *testing.T) {
	broken := &collectReporter{err: fmt.Errorf("sink down")}
	healthy := &collectReporter{}
	m := NewMultiReporter(broken, healthy)

	err := m.Record(sampleDecision(chaos.OutcomePassthrough))
	if err == nil {
		t.Fatalf("expected first sink's error to surface")
	}
	if len(healthy.decisions) != 1 {
		t.Fatalf("second sink skipped after first error")
	}
}

func TestReplay(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	first := sampleDecision(chaos.OutcomeFailed)
	second := sampleDecision(chaos.OutcomeDelayed)
	second.Timestamp = first.Timestamp.Add(time.Hour)
	for _, d := range []chaos.Decision{first, second} {
		if err := enc.Encode(d); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	sink := &collectReporter{}
	// speed 0 disables pacing so the one-hour gap is not replayed.
	if err := Replay(&buf, sink, 0); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(sink.decisions) != 2 {
		t.Fatalf("replayed %d decisions, want 2", len(sink.decisions))
	}
	if sink.decisions[0].Outcome != chaos.OutcomeFailed || sink.decisions[1].Outcome != chaos.OutcomeDelayed {
		t.Fatalf("replay order mismatch: %+v", sink.decisions)
	}
}

func TestReplayMalformed(t *testing.T) {
	sink := &collectReporter{}
	if err := Replay(strings.NewReader("{not json"), sink, 0); err == nil {
		t.Fatalf("expected decode error")
	}
}
