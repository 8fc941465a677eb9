package harness

import (
	"testing"
	"time"
)

func TestCollectorSummarize(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 10; i++ {
		c.Observe("op.a", CallOK, time.Duration(i)*time.Millisecond)
	}
	c.Observe("op.a", CallInjected, 1*time.Millisecond)
	c.Observe("op.b", CallOrganic, 3*time.Millisecond)

	sum := c.Summarize("chaos", "run-1", time.Now(), time.Now())

	if sum.Pass != "chaos" || sum.RunID != "run-1" {
		t.Errorf("labels = %q/%q", sum.Pass, sum.RunID)
	}
	if len(sum.Ops) != 2 {
		t.Fatalf("ops = %d, want 2", len(sum.Ops))
	}
	// Sorted by operation name.
	if sum.Ops[0].Operation != "op.a" || sum.Ops[1].Operation != "op.b" {
		t.Errorf("op order: %s, %s", sum.Ops[0].Operation, sum.Ops[1].Operation)
	}
	a := sum.Ops[0]
	if a.Calls != 11 || a.Injected != 1 {
		t.Errorf("op.a calls=%d injected=%d", a.Calls, a.Injected)
	}
	if sum.Ops[1].Organic != 1 {
		t.Errorf("op.b organic = %d", sum.Ops[1].Organic)
	}
	if sum.Total.Calls != 12 || sum.Total.Injected != 1 || sum.Total.Organic != 1 {
		t.Errorf("total = %+v", sum.Total)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	if got := percentile(sorted, 0.50); got != 50*time.Millisecond {
		t.Errorf("p50 = %v, want 50ms", got)
	}
	if got := percentile(sorted, 0.95); got != 95*time.Millisecond {
		t.Errorf("p95 = %v, want 95ms", got)
	}
	if got := percentile(nil, 0.95); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
	single := []time.Duration{7 * time.Millisecond}
	if got := percentile(single, 0.95); got != 7*time.Millisecond {
		t.Errorf("single-element p95 = %v, want 7ms", got)
	}
}

func TestLatencyStats(t *testing.T) {
	c := NewCollector()
	for _, d := range []time.Duration{4, 2, 8, 6} {
		c.Observe("op", CallOK, d*time.Millisecond)
	}
	sum := c.Summarize("baseline", "r", time.Now(), time.Now())
	op := sum.Ops[0]
	if op.Min != 2*time.Millisecond || op.Max != 8*time.Millisecond {
		t.Errorf("min/max = %v/%v", op.Min, op.Max)
	}
	if op.Mean != 5*time.Millisecond {
		t.Errorf("mean = %v, want 5ms", op.Mean)
	}
}

func TestInjectedFraction(t *testing.T) {
	op := OpSummary{Calls: 200, Injected: 50}
	if got := op.InjectedFraction(); got != 0.25 {
		t.Errorf("fraction = %v, want 0.25", got)
	}
	if got := (OpSummary{}).InjectedFraction(); got != 0 {
		t.Errorf("empty fraction = %v, want 0", got)
	}
}
