// Chaos policy snapshots and the sources that produce them
package chaos

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Environment variables recognized by EnvSource.
const (
	EnvEnabled         = "CHAOS_ENABLED"
	EnvErrorRate       = "CHAOS_INJECT_ERROR_RATE"
	EnvMaxDelaySeconds = "CHAOS_DELAY_SECONDS_MAX"
)

// Defaults applied when a variable is missing or unparsable.
const (
	DefaultErrorRate = 0.1
	DefaultMaxDelay  = 5 * time.Second
)

// Policy is an immutable snapshot of the chaos configuration. A fresh
// snapshot is taken for every gate evaluation so operator changes take
// effect on the next call without a restart.
type Policy struct {
	Enabled   bool
	ErrorRate float64
	MaxDelay  time.Duration
}

// Source produces policy snapshots. Implementations must be safe for
// concurrent use.
type Source interface {
	Current() Policy
}

// EnvSource reads the policy from process environment variables on every
// Current call. Missing or unparsable values fall back to the defaults;
// parsable but out-of-range values are clamped (error rate into [0,1],
// negative delays to zero) rather than rejected.
type EnvSource struct{}

// Current reads a fresh policy snapshot from the environment.
func (EnvSource) Current() Policy {
	return Policy{
		Enabled:   parseBool(os.Getenv(EnvEnabled)),
		ErrorRate: parseRate(os.Getenv(EnvErrorRate)),
		MaxDelay:  parseDelay(os.Getenv(EnvMaxDelaySeconds)),
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func parseRate(v string) float64 {
	if v == "" {
		return DefaultErrorRate
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return DefaultErrorRate
	}
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

func parseDelay(v string) time.Duration {
	if v == "" {
		return DefaultMaxDelay
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return DefaultMaxDelay
	}
	if secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// StaticSource returns the same policy on every call. Used for harness
// passes and tests.
type StaticSource Policy

// Current returns the fixed policy.
func (s StaticSource) Current() Policy { return Policy(s) }

// OverrideSource layers a runtime override on top of a fallback source.
// While an override is set (and not expired) it wins; otherwise the
// fallback source is consulted. The admin server mutates the override.
type OverrideSource struct {
	mu       sync.RWMutex
	override *Policy
	expires  time.Time
	fallback Source
}

// NewOverrideSource wraps fallback with runtime override support.
func NewOverrideSource(fallback Source) *OverrideSource {
	return &OverrideSource{fallback: fallback}
}

// Current returns the override if one is active, else the fallback policy.
func (s *OverrideSource) Current() Policy {
	s.mu.RLock()
	p, ok := s.active()
	s.mu.RUnlock()
	if ok {
		return p
	}
	return s.fallback.Current()
}

func (s *OverrideSource) active() (Policy, bool) {
	if s.override == nil {
		return Policy{}, false
	}
	if !s.expires.IsZero() && time.Now().After(s.expires) {
		return Policy{}, false
	}
	return *s.override, true
}

// Set installs an override. A ttl of zero keeps the override until Clear.
func (s *OverrideSource) Set(p Policy, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = &p
	s.expires = time.Time{}
	if ttl > 0 {
		s.expires = time.Now().Add(ttl)
	}
}

// Clear removes any override so the fallback source applies again.
func (s *OverrideSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = nil
	s.expires = time.Time{}
}

// Override reports the current override state for the admin surface.
func (s *OverrideSource) Override() (Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active()
}
