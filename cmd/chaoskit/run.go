package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chaoskit/internal/chaos"
	"chaoskit/internal/config"
	"chaoskit/internal/harness"
	"chaoskit/internal/logging"
	"chaoskit/internal/report"
)

var (
	runConfigPath string
	runSchemaPath string
	runPrintOnly  bool
	runLogFile    string
	runTUI        bool
)

// runResult is the machine-readable output of a harness run.
type runResult struct {
	Baseline harness.Summary `json:"baseline"`
	Chaos    harness.Summary `json:"chaos"`
	Verdict  harness.Verdict `json:"verdict"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the load harness: baseline pass, chaos pass, comparison",
	Long:  "run drives the configured guarded operations twice (chaos disabled, then enabled) and checks the aggregate metrics against the configured thresholds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadHarness(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		reporter, cleanup, err := newReporters(log, runPrintOnly, runLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		var tui *harness.TUIReporter
		if runTUI {
			tui = harness.NewTUIReporter(cfg.GateID)
			defer tui.Close()
			reporter = report.NewMultiReporter(reporter, tui)
		}

		// One gate serves both passes; the override source flips the
		// policy between them so decisions share a gate id and run id.
		source := chaos.NewOverrideSource(chaos.StaticSource(chaos.Policy{}))
		gate := chaos.NewGate(cfg.GateID, source, reporter)
		runner := harness.NewRunner(harness.NewSimTarget(gate, cfg.Operations), cfg)

		baseline := runner.Run(ctx, "baseline")
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if tui != nil {
			tui.SetPass("chaos")
		}
		source.Set(chaos.Policy{
			Enabled:   true,
			ErrorRate: cfg.Policy.ErrorRate,
			MaxDelay:  cfg.Policy.MaxDelay(),
		}, 0)
		chaosPass := runner.Run(ctx, "chaos")
		if ctx.Err() != nil {
			return ctx.Err()
		}

		verdict := harness.Compare(baseline, chaosPass, cfg.Policy.ErrorRate, cfg.Thresholds)
		result := runResult{Baseline: baseline, Chaos: chaosPass, Verdict: verdict}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !verdict.Passed {
			return fmt.Errorf("chaos run failed %d threshold check(s)", failedChecks(verdict))
		}
		return nil
	},
}

func failedChecks(v harness.Verdict) int {
	n := 0
	for _, c := range v.Checks {
		if !c.Passed {
			n++
		}
	}
	return n
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/harness.yaml", "Path to harness configuration YAML")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "schemas/harness.cue", "Path to CUE schema file")
	runCmd.Flags().BoolVar(&runPrintOnly, "print-only", false, "Print decisions to STDOUT instead of writing to DB")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Path to export the decision log (JSONL)")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Render decisions in a live terminal UI")
}
