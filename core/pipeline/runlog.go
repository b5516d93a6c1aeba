package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Event is a single record in the run log.
type Event struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	Action          string `json:"action"` // "start" or "exit"
	Driver          string `json:"driver"`
	CommandLine     string `json:"command_line"`
	ExitCode        int    `json:"exit_code,omitempty"`
	DurationMillis  int64  `json:"duration_millis,omitempty"`
	Error           string `json:"error,omitempty"`
}

// EventRecorder is a callback that stores run events in an external store.
type EventRecorder func(ev *Event) error

// RunLog captures start/exit records for driver invocations.
type RunLog struct {
	Record EventRecorder
}

// NewJSONLinesRunLog creates a RunLog that exports events in newline
// delimited JSON object format.
func NewJSONLinesRunLog(w io.Writer) *RunLog {
	return &RunLog{
		Record: func(ev *Event) error {
			entry, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// DiscardRunLog swallows all events, for dry runs and tests.
func DiscardRunLog() *RunLog {
	return &RunLog{Record: func(*Event) error { return nil }}
}

func (l *RunLog) record(ev *Event) error {
	ev.TimestampMicros = time.Now().UnixMicro()
	return l.Record(ev)
}

// ReadRunLog parses a newline delimited JSON run log.
func ReadRunLog(r io.Reader, handler func(ev *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var ev Event
		if err := decoder.Decode(&ev); err != nil {
			return err
		}
		handler(&ev)
	}
	return nil
}
