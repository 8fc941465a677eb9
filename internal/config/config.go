// YAML harness config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Operation describes one guarded operation the harness drives.
type Operation struct {
	Name      string `yaml:"name"`
	Weight    int    `yaml:"weight"`
	WorkMinMS int    `yaml:"work_min_ms"`
	WorkMaxMS int    `yaml:"work_max_ms"`
}

// Load bounds the generated call volume.
type Load struct {
	Workers int `yaml:"workers"`
	Calls   int `yaml:"calls"`
}

// Policy configures the chaos pass of a harness run.
type Policy struct {
	ErrorRate       float64 `yaml:"error_rate"`
	MaxDelaySeconds float64 `yaml:"max_delay_seconds"`
}

// Thresholds gate the baseline-vs-chaos comparison.
type Thresholds struct {
	// ErrorRateTolerance is the allowed absolute gap between the observed
	// injected-failure fraction and the configured error rate.
	ErrorRateTolerance float64 `yaml:"error_rate_tolerance"`
	// MaxP95DeltaMS caps how much the chaos pass p95 latency may exceed
	// the baseline p95.
	MaxP95DeltaMS float64 `yaml:"max_p95_delta_ms"`
	// MaxOrganicFailures caps non-injected failures in either pass.
	MaxOrganicFailures int `yaml:"max_organic_failures"`
}

// HarnessConfig is the root configuration for a load-harness run.
type HarnessConfig struct {
	GateID     string      `yaml:"gate_id"`
	Operations []Operation `yaml:"operations"`
	Load       Load        `yaml:"load"`
	Policy     Policy      `yaml:"policy"`
	Thresholds Thresholds  `yaml:"thresholds"`
}

// LoadHarness loads the YAML config and validates it against a CUE schema.
func LoadHarness(configPath, cueSchemaPath string) (*HarnessConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg HarnessConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *HarnessConfig) {
	if cfg.GateID == "" {
		cfg.GateID = "chaoskit"
	}
	if cfg.Load.Workers <= 0 {
		cfg.Load.Workers = 4
	}
	if cfg.Load.Calls <= 0 {
		cfg.Load.Calls = 1000
	}
	for i := range cfg.Operations {
		if cfg.Operations[i].Weight <= 0 {
			cfg.Operations[i].Weight = 1
		}
	}
}

func check(cfg *HarnessConfig) error {
	if len(cfg.Operations) == 0 {
		return fmt.Errorf("config: at least one operation required")
	}
	for _, op := range cfg.Operations {
		if op.Name == "" {
			return fmt.Errorf("config: operation with empty name")
		}
		if op.WorkMinMS < 0 || op.WorkMaxMS < op.WorkMinMS {
			return fmt.Errorf("config: operation %s: invalid work bounds", op.Name)
		}
	}
	if cfg.Policy.ErrorRate < 0 || cfg.Policy.ErrorRate > 1 {
		return fmt.Errorf("config: policy error_rate %v outside [0,1]", cfg.Policy.ErrorRate)
	}
	if cfg.Policy.MaxDelaySeconds < 0 {
		return fmt.Errorf("config: policy max_delay_seconds %v negative", cfg.Policy.MaxDelaySeconds)
	}
	return nil
}

// MaxDelay returns the chaos pass delay ceiling as a duration.
func (p Policy) MaxDelay() time.Duration {
	return time.Duration(p.MaxDelaySeconds * float64(time.Second))
}
