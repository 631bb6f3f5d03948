package autoworkout

import "fmt"

const (
	mpsToKph = 3.6
	mpsToMph = 3600 / 1609.344
)

// Status is the per-tick snapshot published for display and recording
type Status struct {
	TimeS     int
	DistanceM int
	PowerW    int

	// Ready is false while the history is still warming up. The smoothed
	// fields and everything below are zero until then.
	Ready     bool
	SpeedMPS  float64
	AvgPowerW int

	Phase       Phase
	WorkoutName string
	SecsLeft    int
	EstEndM     int
	HasEstEnd   bool

	// Actions dispatched while processing this tick, in order
	Actions []Action
}

// SpeedKph returns the smoothed speed in km/h
func (s Status) SpeedKph() float64 {
	return s.SpeedMPS * mpsToKph
}

// SpeedMph returns the smoothed speed in miles per hour
func (s Status) SpeedMph() float64 {
	return s.SpeedMPS * mpsToMph
}

// Header renders elapsed time, distance, speed and power as one fixed-width
// prefix, for example "0:16:40 3.125 32.4kph 187w".
func (s Status) Header() string {
	sec := s.TimeS
	if sec < 0 {
		sec = 0
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	sc := sec % 60
	return fmt.Sprintf("%d:%02d:%02d %.3f %4.1fkph %3dw",
		h, m, sc, float64(s.DistanceM)/1000, s.SpeedKph(), s.AvgPowerW)
}

// WorkoutInfo renders the running workout's remaining time and predicted
// end, or "" when idle.
func (s Status) WorkoutInfo() string {
	if s.Phase != PhaseActive {
		return ""
	}
	if !s.HasEstEnd {
		return fmt.Sprintf("%d secs left", s.SecsLeft)
	}
	return fmt.Sprintf("%d secs left [est. end: %.3f]", s.SecsLeft, float64(s.EstEndM)/1000)
}
