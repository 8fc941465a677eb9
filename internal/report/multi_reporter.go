package report

import "chaoskit/internal/chaos"

// MultiReporter fans a decision out to several reporters. The first error
// is returned after all reporters have been tried, so one slow or broken
// sink never starves the others.
type MultiReporter struct {
	reporters []chaos.Reporter
}

// NewMultiReporter creates a MultiReporter over rs.
func NewMultiReporter(rs ...chaos.Reporter) *MultiReporter {
	return &MultiReporter{reporters: rs}
}

// Record implements chaos.Reporter.
func (m *MultiReporter) Record(d chaos.Decision) error {
	var first error
	for _, r := range m.reporters {
		if err := r.Record(d); err != nil && first == nil {
			first = err
		}
	}
	return first
}
