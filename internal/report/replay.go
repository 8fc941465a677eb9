package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"chaoskit/internal/chaos"
)

// Replay feeds decisions from a JSONL log back into a reporter. A speed
// >0 paces playback by the recorded timestamp gaps (2 = twice as fast);
// speed <= 0 replays without artificial delay.
func Replay(r io.Reader, reporter chaos.Reporter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var d chaos.Decision
		if err := dec.Decode(&d); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			gap := d.Timestamp.Sub(prev)
			if speed != 1 {
				gap = time.Duration(float64(gap) / speed)
			}
			if gap > 0 {
				time.Sleep(gap)
			}
		}
		if err := reporter.Record(d); err != nil {
			return err
		}
		prev = d.Timestamp
	}
}

// ReplayFile opens a decision log and replays it.
func ReplayFile(path string, reporter chaos.Reporter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Replay(f, reporter, speed)
}
