// Package telemetry keeps the short rolling history of simulator samples the
// controller bases its speed and power estimates on.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// MinSamples is how many samples must be buffered before any estimate is
	// available.
	MinSamples = 5

	// DefaultWindowSeconds is the smoothing window used by the controller.
	DefaultWindowSeconds = 5

	maxSamples  = 200
	keepSamples = 100
)

// ErrOutOfOrder is returned by Append for a sample older than the newest
// buffered one whose time does not match any buffered sample.
var ErrOutOfOrder = errors.New("telemetry sample out of order")

// Sample is one telemetry tick, truncated to whole units
type Sample struct {
	TimeS     int
	DistanceM int
	PowerW    int
}

// History is a bounded, time-ordered buffer of samples. It is not safe for
// concurrent use; the session loop is its only user.
type History struct {
	samples []Sample
}

// NewHistory returns an empty history
func NewHistory() *History {
	return &History{samples: make([]Sample, 0, maxSamples+1)}
}

// Append adds s. A sample whose time is already buffered replaces that
// entry. Once more than 200 samples are held the buffer is cut back to the
// newest 100.
func (h *History) Append(s Sample) error {
	n := len(h.samples)
	if n > 0 && s.TimeS <= h.samples[n-1].TimeS {
		for i := n - 1; i >= 0; i-- {
			if h.samples[i].TimeS == s.TimeS {
				h.samples[i] = s
				return nil
			}
			if h.samples[i].TimeS < s.TimeS {
				break
			}
		}
		return fmt.Errorf("%w: t=%d, newest t=%d", ErrOutOfOrder, s.TimeS, h.samples[n-1].TimeS)
	}

	h.samples = append(h.samples, s)
	if len(h.samples) > maxSamples {
		kept := make([]Sample, keepSamples, maxSamples+1)
		copy(kept, h.samples[len(h.samples)-keepSamples:])
		h.samples = kept
	}
	return nil
}

// Len returns the number of buffered samples
func (h *History) Len() int {
	return len(h.samples)
}

// Ready reports whether enough samples are buffered to make decisions
func (h *History) Ready() bool {
	return len(h.samples) >= MinSamples
}

// Latest returns the newest sample
func (h *History) Latest() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Samples returns a copy of the buffered samples, oldest first
func (h *History) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// AvgSpeed returns the mean speed in m/s over the trailing windowSeconds+1
// samples, leaving out the newest one. ok is false until Ready.
func (h *History) AvgSpeed(windowSeconds int) (mps float64, ok bool) {
	if !h.Ready() {
		return 0, false
	}
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	tail := h.tail(windowSeconds + 1)
	first, end := tail[0], tail[len(tail)-2]

	dTime := end.TimeS - first.TimeS
	if dTime < 1 {
		dTime = 1
	}
	return float64(end.DistanceM-first.DistanceM) / float64(dTime), true
}

// AvgPower returns the simple moving average of power over the trailing
// windowSeconds samples, truncated to whole watts. ok is false until Ready.
func (h *History) AvgPower(windowSeconds int) (watts int, ok bool) {
	if !h.Ready() {
		return 0, false
	}
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	tail := h.tail(windowSeconds)
	sum := 0
	for _, s := range tail {
		sum += s.PowerW
	}
	return int(float64(sum) / float64(len(tail))), true
}

func (h *History) tail(n int) []Sample {
	if n >= len(h.samples) {
		return h.samples
	}
	return h.samples[len(h.samples)-n:]
}
