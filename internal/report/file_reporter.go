package report

import (
	"encoding/json"
	"os"
	"sync"

	"chaoskit/internal/chaos"
)

// FileReporter appends decisions to a JSONL file, one object per line.
// The log can be fed back through Replay.
type FileReporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileReporter creates (truncating) the decision log at path.
func NewFileReporter(path string) (*FileReporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileReporter{file: f, enc: json.NewEncoder(f)}, nil
}

// Record implements chaos.Reporter.
func (r *FileReporter) Record(d chaos.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(d)
}

// Close flushes and closes the underlying file.
func (r *FileReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
