// Load generator driving guarded operations under baseline and chaos policies
package harness

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"chaoskit/internal/chaos"
	"chaoskit/internal/config"
	"chaoskit/internal/logging"
)

// Target is the system under test. Call performs one guarded operation;
// the target is responsible for evaluating its chaos gate first.
type Target interface {
	Call(ctx context.Context, operation string) error
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(ctx context.Context, operation string) error

// Call implements Target.
func (f TargetFunc) Call(ctx context.Context, operation string) error {
	return f(ctx, operation)
}

// Runner issues a fixed call budget against a target from a worker pool,
// picking operations by configured weight.
type Runner struct {
	target  Target
	ops     []config.Operation
	workers int
	calls   int
	runID   string
}

// NewRunner builds a runner for the configured load shape.
func NewRunner(target Target, cfg *config.HarnessConfig) *Runner {
	return &Runner{
		target:  target,
		ops:     cfg.Operations,
		workers: cfg.Load.Workers,
		calls:   cfg.Load.Calls,
		runID:   uuid.NewString(),
	}
}

// RunID identifies this runner's passes in summaries and logs.
func (r *Runner) RunID() string { return r.runID }

// Run executes one pass and returns its summary. The pass name labels the
// summary (baseline or chaos). Stops early when ctx is done.
func (r *Runner) Run(ctx context.Context, pass string) Summary {
	log := logging.FromContext(ctx)
	log.Info("harness pass starting", "pass", pass, "run_id", r.runID,
		"workers", r.workers, "calls", r.calls)

	collector := NewCollector()
	started := time.Now()

	var issued atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				if ctx.Err() != nil {
					return
				}
				n := issued.Add(1)
				if n > int64(r.calls) {
					return
				}
				op := r.pickOp(rng)
				begin := time.Now()
				err := r.target.Call(ctx, op)
				collector.Observe(op, classify(err), time.Since(begin))
			}
		}(started.UnixNano() + int64(w))
	}
	wg.Wait()

	sum := collector.Summarize(pass, r.runID, started, time.Now())
	log.Info("harness pass finished", "pass", pass,
		"calls", sum.Total.Calls, "injected", sum.Total.Injected,
		"organic", sum.Total.Organic, "p95", sum.Total.P95)
	return sum
}

func (r *Runner) pickOp(rng *rand.Rand) string {
	total := 0
	for _, op := range r.ops {
		total += op.Weight
	}
	n := rng.Intn(total)
	for _, op := range r.ops {
		n -= op.Weight
		if n < 0 {
			return op.Name
		}
	}
	return r.ops[len(r.ops)-1].Name
}

func classify(err error) CallClass {
	switch {
	case err == nil:
		return CallOK
	case errors.Is(err, chaos.ErrInjected):
		return CallInjected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CallCancelled
	}
	return CallOrganic
}

// SimTarget is a synthetic target whose operations do nothing but consult
// the gate and sleep for a bounded, randomized work duration. It stands in
// for real I/O when the harness runs without a host application.
type SimTarget struct {
	gate *chaos.Gate
	work map[string][2]time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimTarget builds a synthetic target guarded by gate.
func NewSimTarget(gate *chaos.Gate, ops []config.Operation) *SimTarget {
	work := make(map[string][2]time.Duration, len(ops))
	for _, op := range ops {
		work[op.Name] = [2]time.Duration{
			time.Duration(op.WorkMinMS) * time.Millisecond,
			time.Duration(op.WorkMaxMS) * time.Millisecond,
		}
	}
	return &SimTarget{
		gate: gate,
		work: work,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Call implements Target: gate first, then simulated work.
func (t *SimTarget) Call(ctx context.Context, operation string) error {
	if _, err := t.gate.Evaluate(ctx, operation); err != nil {
		return err
	}
	bounds, ok := t.work[operation]
	if !ok || bounds[1] <= 0 {
		return nil
	}
	span := bounds[1] - bounds[0]
	d := bounds[0]
	if span > 0 {
		t.mu.Lock()
		d += time.Duration(t.rng.Int63n(int64(span)))
		t.mu.Unlock()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
