package main

import (
	"log/slog"
	"os"

	"chaoskit/internal/chaos"
	"chaoskit/internal/report"
)

// newReporters sets up decision sinks based on flags and env vars. It
// returns the fan-out reporter and a cleanup function to close resources.
func newReporters(log *slog.Logger, printOnly bool, logFile string) (chaos.Reporter, func(), error) {
	cleanup := func() {}

	reporters := []chaos.Reporter{report.NewLogReporter(log)}

	sink, err := baseSink(printOnly)
	if err != nil {
		return nil, nil, err
	}
	reporters = append(reporters, sink)

	if logFile != "" {
		fr, err := report.NewFileReporter(logFile)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { fr.Close() }
		reporters = append(reporters, fr)
	}

	return report.NewMultiReporter(reporters...), cleanup, nil
}

// baseSink chooses GreptimeDB when an endpoint is configured, else STDOUT.
func baseSink(printOnly bool) (chaos.Reporter, error) {
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		return report.NewJSONStdoutReporter(), nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return report.NewGreptimeReporter(endpoint, database)
}
