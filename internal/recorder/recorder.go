// Package recorder keeps every accepted tick of a session and writes them to
// disk when the session ends.
package recorder

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// Format selects the on-disk encoding
type Format string

const (
	FormatParquet Format = "parquet"
	FormatFIT     Format = "fit"
)

// ErrUnknownFormat is returned for a Format other than parquet or fit
var ErrUnknownFormat = errors.New("unknown record format")

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatParquet, FormatFIT:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Row is one recorded tick
type Row struct {
	TimeS     int
	DistanceM int
	PowerW    int
	Ready     bool
	SpeedMPS  float64
	AvgPowerW int
	Phase     autoworkout.Phase
	Workout   string
	SecsLeft  int
	EstEndM   int
	Actions   []autoworkout.Action
}

// Recorder collects statuses in memory. Record may be called from the tick
// loop while Rows or Close run elsewhere.
type Recorder struct {
	path   string
	format Format
	start  time.Time
	logger *log.Logger

	mu     sync.Mutex
	rows   []Row
	closed bool
}

// New creates a Recorder that writes to path in format on Close. start is
// the wall-clock time FIT timestamps are counted from.
func New(path string, format Format, start time.Time, logger *log.Logger) (*Recorder, error) {
	if logger == nil {
		panic("Recorder: logger cannot be nil")
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("recorder: empty path")
	}
	return &Recorder{path: path, format: format, start: start, logger: logger}, nil
}

// Record appends st. Statuses recorded after Close are ignored.
func (r *Recorder) Record(st autoworkout.Status) {
	row := Row{
		TimeS:     st.TimeS,
		DistanceM: st.DistanceM,
		PowerW:    st.PowerW,
		Ready:     st.Ready,
		SpeedMPS:  st.SpeedMPS,
		AvgPowerW: st.AvgPowerW,
		Phase:     st.Phase,
		Workout:   st.WorkoutName,
		SecsLeft:  st.SecsLeft,
		EstEndM:   st.EstEndM,
		Actions:   append([]autoworkout.Action(nil), st.Actions...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.rows = append(r.rows, row)
}

// Rows returns a copy of what has been recorded so far
func (r *Recorder) Rows() []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Row(nil), r.rows...)
}

// Encode renders the recorded rows in the recorder's format
func (r *Recorder) Encode() ([]byte, error) {
	rows := r.Rows()
	switch r.format {
	case FormatFIT:
		return encodeFIT(rows, r.start)
	default:
		return encodeParquet(rows)
	}
}

// Close stops recording and writes the file. Only the first call writes.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	n := len(r.rows)
	r.mu.Unlock()

	data, err := r.Encode()
	if err != nil {
		return fmt.Errorf("encode %s recording: %w", r.format, err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	r.logger.Printf("Recorder: Wrote %d ticks to %s (%s)", n, r.path, r.format)
	return nil
}

func actionsColumn(actions []autoworkout.Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, ";")
}
