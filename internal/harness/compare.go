package harness

import (
	"fmt"
	"math"
	"time"

	"chaoskit/internal/config"
)

// Check is one threshold evaluation in a comparison verdict.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Verdict is the outcome of comparing a baseline pass against a chaos pass.
type Verdict struct {
	Passed bool    `json:"passed"`
	Checks []Check `json:"checks"`
}

// Compare evaluates a chaos pass against its baseline. expectedRate is the
// error rate the chaos pass ran with.
func Compare(baseline, chaos Summary, expectedRate float64, th config.Thresholds) Verdict {
	var v Verdict
	v.Passed = true

	add := func(name string, passed bool, detail string) {
		v.Checks = append(v.Checks, Check{Name: name, Passed: passed, Detail: detail})
		if !passed {
			v.Passed = false
		}
	}

	add("baseline_clean", baseline.Total.Injected == 0,
		fmt.Sprintf("baseline injected faults: %d (want 0)", baseline.Total.Injected))

	if th.ErrorRateTolerance > 0 {
		observed := chaos.Total.InjectedFraction()
		gap := math.Abs(observed - expectedRate)
		add("injected_rate", gap <= th.ErrorRateTolerance,
			fmt.Sprintf("observed %.4f vs configured %.4f (tolerance %.4f)",
				observed, expectedRate, th.ErrorRateTolerance))
	}

	if th.MaxP95DeltaMS > 0 {
		delta := chaos.Total.P95 - baseline.Total.P95
		cap := time.Duration(th.MaxP95DeltaMS * float64(time.Millisecond))
		add("p95_delta", delta <= cap,
			fmt.Sprintf("p95 delta %s (cap %s)", delta, cap))
	}

	organic := baseline.Total.Organic + chaos.Total.Organic
	add("organic_failures", organic <= th.MaxOrganicFailures,
		fmt.Sprintf("organic failures: %d (cap %d)", organic, th.MaxOrganicFailures))

	return v
}
