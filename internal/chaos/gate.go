package chaos

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"chaoskit/internal/logging"
)

// ErrInjected is the distinguished fault raised by the gate. Callers and
// tests separate simulated failures from organic ones with
// errors.Is(err, chaos.ErrInjected).
var ErrInjected = errors.New("chaos: injected fault")

// Outcome classifies a single gate evaluation.
type Outcome string

// Gate outcomes.
const (
	OutcomePassthrough Outcome = "passthrough"
	OutcomeDelayed     Outcome = "delayed"
	OutcomeFailed      Outcome = "failed"
)

// Decision is the record of one gate evaluation. It carries the random
// draw and the policy snapshot that produced the outcome so downstream
// telemetry can audit every decision.
type Decision struct {
	GateID          string    `json:"gate_id"`   // TAG
	Operation       string    `json:"operation"` // TAG
	Outcome         Outcome   `json:"outcome"`   // TAG
	Probability     float64   `json:"probability"`
	DelaySeconds    float64   `json:"delay_seconds"`
	ErrorRate       float64   `json:"error_rate"`
	MaxDelaySeconds float64   `json:"max_delay_seconds"`
	Timestamp       time.Time `json:"ts"` // TIME INDEX
}

// Reporter receives one decision per gate evaluation. Implementations
// must not block materially; the gate drops reporter errors so telemetry
// can never delay or mask the decision itself.
type Reporter interface {
	Record(Decision) error
}

// Stats are running gate counters, exposed on the admin surface.
type Stats struct {
	Total       int64 `json:"total"`
	Passthrough int64 `json:"passthrough"`
	Delayed     int64 `json:"delayed"`
	Failed      int64 `json:"failed"`
	Cancelled   int64 `json:"cancelled"`
}

// Gate decides per call whether a guarded operation fails, waits, or
// proceeds. Safe for concurrent use.
type Gate struct {
	id       string
	source   Source
	reporter Reporter
	now      func() time.Time

	mu    sync.Mutex
	rng   *rand.Rand
	stats Stats
}

// Option customizes a Gate.
type Option func(*Gate)

// WithRand replaces the gate's random source, for deterministic tests.
func WithRand(src rand.Source) Option {
	return func(g *Gate) { g.rng = rand.New(src) }
}

// WithClock replaces the gate's clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a gate identified by id, reading policy from source and
// reporting decisions to reporter. A nil reporter disables reporting.
func NewGate(id string, source Source, reporter Reporter, opts ...Option) *Gate {
	g := &Gate{
		id:       id,
		source:   source,
		reporter: reporter,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the gate identifier used to tag decisions.
func (g *Gate) ID() string { return g.id }

// Stats returns a snapshot of the running counters.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Evaluate runs the chaos decision for one guarded operation. It must be
// called before the operation's real work so an injected fault leaves the
// guarded resource untouched.
//
// The error check precedes the delay check: a call that fails never also
// pays a delay. When the policy is disabled the gate returns immediately
// without a random draw and without reporting. A context cancelled while
// suspended returns ctx.Err(), never ErrInjected.
func (g *Gate) Evaluate(ctx context.Context, operation string) (Decision, error) {
	policy := g.source.Current()
	if !policy.Enabled {
		g.count(func(s *Stats) { s.Total++; s.Passthrough++ })
		return Decision{
			GateID:    g.id,
			Operation: operation,
			Outcome:   OutcomePassthrough,
			Timestamp: g.now().UTC(),
		}, nil
	}

	d := Decision{
		GateID:          g.id,
		Operation:       operation,
		Probability:     g.draw(),
		ErrorRate:       policy.ErrorRate,
		MaxDelaySeconds: policy.MaxDelay.Seconds(),
		Timestamp:       g.now().UTC(),
	}

	if d.Probability < policy.ErrorRate {
		d.Outcome = OutcomeFailed
		g.count(func(s *Stats) { s.Total++; s.Failed++ })
		g.report(ctx, d)
		return d, fmt.Errorf("%w: operation %s", ErrInjected, operation)
	}

	if policy.MaxDelay > 0 {
		delay := time.Duration(g.draw() * float64(policy.MaxDelay))
		d.Outcome = OutcomeDelayed
		d.DelaySeconds = delay.Seconds()
		g.count(func(s *Stats) { s.Total++; s.Delayed++ })
		g.report(ctx, d)
		if err := g.suspend(ctx, delay); err != nil {
			g.count(func(s *Stats) { s.Cancelled++ })
			return d, err
		}
		return d, nil
	}

	d.Outcome = OutcomePassthrough
	g.count(func(s *Stats) { s.Total++; s.Passthrough++ })
	g.report(ctx, d)
	return d, nil
}

// suspend waits for delay or until ctx is done, whichever comes first.
// The timer is always stopped so a cancelled call leaks nothing.
func (g *Gate) suspend(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) draw() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Gate) count(fn func(*Stats)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.stats)
}

func (g *Gate) report(ctx context.Context, d Decision) {
	if g.reporter == nil {
		return
	}
	if err := g.reporter.Record(d); err != nil {
		logging.FromContext(ctx).Debug("chaos decision report dropped", "operation", d.Operation, "err", err)
	}
}
