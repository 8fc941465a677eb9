package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chaoskit/internal/logging"
	"chaoskit/internal/report"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded decision log",
	Long:  "replay feeds decision rows from a JSONL log back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		log := logging.New()
		reporter, cleanup, err := newReporters(log, replayPrintOnly, "")
		if err != nil {
			return err
		}
		defer cleanup()
		return report.ReplayFile(replayInput, reporter, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to decision log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print decisions to STDOUT instead of writing to DB")
	replayCmd.MarkFlagRequired("input")
}
