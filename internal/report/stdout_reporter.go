package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"chaoskit/internal/chaos"
)

// JSONStdoutReporter prints decisions as JSON lines.
type JSONStdoutReporter struct {
	out io.Writer
}

// NewJSONStdoutReporter creates a reporter writing to os.Stdout.
func NewJSONStdoutReporter() *JSONStdoutReporter {
	return &JSONStdoutReporter{out: os.Stdout}
}

// NewJSONReporter creates a reporter writing to w.
func NewJSONReporter(w io.Writer) *JSONStdoutReporter {
	return &JSONStdoutReporter{out: w}
}

// Record implements chaos.Reporter.
func (r *JSONStdoutReporter) Record(d chaos.Decision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}
