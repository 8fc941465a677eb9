// Reporter sinks for chaos gate decisions
package report

import (
	"log/slog"

	"chaoskit/internal/chaos"
)

// Prefixes encode the outcome in a stable, greppable form so log-query
// systems can filter decisions deterministically.
const (
	PrefixError = "CHAOS[error]"
	PrefixDelay = "CHAOS[delay]"
	PrefixPass  = "CHAOS[pass]"
)

// Prefix returns the stable log prefix for an outcome.
func Prefix(o chaos.Outcome) string {
	switch o {
	case chaos.OutcomeFailed:
		return PrefixError
	case chaos.OutcomeDelayed:
		return PrefixDelay
	}
	return PrefixPass
}

// LogReporter emits one structured slog line per decision.
type LogReporter struct {
	log *slog.Logger
}

// NewLogReporter creates a LogReporter writing through l.
func NewLogReporter(l *slog.Logger) *LogReporter {
	return &LogReporter{log: l}
}

// Record implements chaos.Reporter.
func (r *LogReporter) Record(d chaos.Decision) error {
	r.log.Warn(Prefix(d.Outcome),
		"gate_id", d.GateID,
		"operation", d.Operation,
		"outcome", string(d.Outcome),
		"probability", d.Probability,
		"delay_seconds", d.DelaySeconds,
		"error_rate", d.ErrorRate,
		"max_delay_seconds", d.MaxDelaySeconds,
	)
	return nil
}
