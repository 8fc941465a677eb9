// Load-harness metrics collection and aggregation
package harness

import (
	"sort"
	"sync"
	"time"
)

// CallClass classifies how a guarded call ended.
type CallClass int

// Call classifications.
const (
	CallOK CallClass = iota
	CallInjected
	CallOrganic
	CallCancelled
)

// OpSummary aggregates calls to one operation.
type OpSummary struct {
	Operation string        `json:"operation"`
	Calls     int           `json:"calls"`
	Injected  int           `json:"injected"`
	Organic   int           `json:"organic"`
	Cancelled int           `json:"cancelled"`
	Min       time.Duration `json:"min"`
	Mean      time.Duration `json:"mean"`
	P50       time.Duration `json:"p50"`
	P95       time.Duration `json:"p95"`
	Max       time.Duration `json:"max"`
}

// InjectedFraction returns the share of calls that took an injected fault.
func (s OpSummary) InjectedFraction() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Injected) / float64(s.Calls)
}

// Summary is the result of one harness pass.
type Summary struct {
	Pass     string      `json:"pass"`
	RunID    string      `json:"run_id"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`
	Ops      []OpSummary `json:"ops"`
	Total    OpSummary   `json:"total"`
}

// Collector gathers call samples from concurrent workers.
type Collector struct {
	mu        sync.Mutex
	latencies map[string][]time.Duration
	classes   map[string]map[CallClass]int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		latencies: make(map[string][]time.Duration),
		classes:   make(map[string]map[CallClass]int),
	}
}

// Observe records one finished call.
func (c *Collector) Observe(operation string, class CallClass, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies[operation] = append(c.latencies[operation], latency)
	m := c.classes[operation]
	if m == nil {
		m = make(map[CallClass]int)
		c.classes[operation] = m
	}
	m[class]++
}

// Summarize folds the samples into per-operation and total summaries.
func (c *Collector) Summarize(pass, runID string, started, finished time.Time) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.latencies))
	for name := range c.latencies {
		names = append(names, name)
	}
	sort.Strings(names)

	sum := Summary{Pass: pass, RunID: runID, Started: started, Finished: finished}
	var all []time.Duration
	total := OpSummary{Operation: "total"}
	for _, name := range names {
		op := summarizeOp(name, c.latencies[name], c.classes[name])
		sum.Ops = append(sum.Ops, op)
		all = append(all, c.latencies[name]...)
		total.Calls += op.Calls
		total.Injected += op.Injected
		total.Organic += op.Organic
		total.Cancelled += op.Cancelled
	}
	withLatencies(&total, all)
	sum.Total = total
	return sum
}

func summarizeOp(name string, lats []time.Duration, classes map[CallClass]int) OpSummary {
	op := OpSummary{
		Operation: name,
		Calls:     len(lats),
		Injected:  classes[CallInjected],
		Organic:   classes[CallOrganic],
		Cancelled: classes[CallCancelled],
	}
	withLatencies(&op, lats)
	return op
}

func withLatencies(op *OpSummary, lats []time.Duration) {
	if len(lats) == 0 {
		return
	}
	sorted := make([]time.Duration, len(lats))
	copy(sorted, lats)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	op.Min = sorted[0]
	op.Max = sorted[len(sorted)-1]
	op.Mean = sum / time.Duration(len(sorted))
	op.P50 = percentile(sorted, 0.50)
	op.P95 = percentile(sorted, 0.95)
}

// percentile returns the nearest-rank percentile of a sorted slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}
