package harness

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"chaoskit/internal/chaos"
	"chaoskit/internal/config"
)

func harnessCfg(workers, calls int, ops ...config.Operation) *config.HarnessConfig {
	return &config.HarnessConfig{
		GateID:     "test-gate",
		Operations: ops,
		Load:       config.Load{Workers: workers, Calls: calls},
	}
}

func TestRunnerIssuesExactCallBudget(t *testing.T) {
	var calls atomic.Int64
	target := TargetFunc(func(ctx context.Context, operation string) error {
		calls.Add(1)
		return nil
	})
	cfg := harnessCfg(8, 500, config.Operation{Name: "op.a", Weight: 1})

	sum := NewRunner(target, cfg).Run(context.Background(), "baseline")

	if got := calls.Load(); got != 500 {
		t.Errorf("target calls = %d, want 500", got)
	}
	if sum.Total.Calls != 500 {
		t.Errorf("summary calls = %d, want 500", sum.Total.Calls)
	}
	if sum.Total.Injected != 0 || sum.Total.Organic != 0 {
		t.Errorf("clean pass recorded failures: %+v", sum.Total)
	}
}

func TestRunnerClassifiesInjectedFaults(t *testing.T) {
	gate := chaos.NewGate("test-gate",
		chaos.StaticSource(chaos.Policy{Enabled: true, ErrorRate: 1}), nil)
	target := NewSimTarget(gate, []config.Operation{{Name: "op.a", Weight: 1}})
	cfg := harnessCfg(4, 200, config.Operation{Name: "op.a", Weight: 1})

	sum := NewRunner(target, cfg).Run(context.Background(), "chaos")

	if sum.Total.Injected != 200 {
		t.Errorf("injected = %d, want 200", sum.Total.Injected)
	}
	if sum.Total.Organic != 0 {
		t.Errorf("organic = %d, want 0", sum.Total.Organic)
	}
}

func TestRunnerClassifiesOrganicFailures(t *testing.T) {
	boom := errors.New("backend down")
	target := TargetFunc(func(ctx context.Context, operation string) error {
		return boom
	})
	cfg := harnessCfg(2, 50, config.Operation{Name: "op.a", Weight: 1})

	sum := NewRunner(target, cfg).Run(context.Background(), "baseline")

	if sum.Total.Organic != 50 {
		t.Errorf("organic = %d, want 50", sum.Total.Organic)
	}
	if sum.Total.Injected != 0 {
		t.Errorf("injected = %d, want 0", sum.Total.Injected)
	}
}

func TestRunnerWeightedOperations(t *testing.T) {
	var a, b atomic.Int64
	target := TargetFunc(func(ctx context.Context, operation string) error {
		if operation == "op.a" {
			a.Add(1)
		} else {
			b.Add(1)
		}
		return nil
	})
	cfg := harnessCfg(4, 2000,
		config.Operation{Name: "op.a", Weight: 9},
		config.Operation{Name: "op.b", Weight: 1})

	NewRunner(target, cfg).Run(context.Background(), "baseline")

	if a.Load()+b.Load() != 2000 {
		t.Fatalf("total = %d, want 2000", a.Load()+b.Load())
	}
	// op.a carries 90% of the weight; with 2000 draws it must dominate.
	if a.Load() <= b.Load() {
		t.Errorf("weighting ignored: op.a=%d op.b=%d", a.Load(), b.Load())
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int64
	target := TargetFunc(func(ctx context.Context, operation string) error {
		if calls.Add(1) == 10 {
			cancel()
		}
		return ctx.Err()
	})
	cfg := harnessCfg(1, 1_000_000, config.Operation{Name: "op.a", Weight: 1})

	sum := NewRunner(target, cfg).Run(ctx, "baseline")

	if sum.Total.Calls >= 1_000_000 {
		t.Errorf("runner did not stop early: %d calls", sum.Total.Calls)
	}
}

func TestRunIDStable(t *testing.T) {
	r := NewRunner(TargetFunc(func(context.Context, string) error { return nil }),
		harnessCfg(1, 1, config.Operation{Name: "op.a", Weight: 1}))
	if r.RunID() == "" {
		t.Fatal("empty run id")
	}
	if r.RunID() != r.RunID() {
		t.Error("run id changed between calls")
	}
}
