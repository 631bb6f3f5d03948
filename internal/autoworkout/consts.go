package autoworkout

import "github.com/lowaak/auto-workout/internal/telemetry"

// Timing constants, in simulator seconds
const (
	// ActionDelayS covers the time the automation layer needs before a
	// started workout actually begins counting.
	ActionDelayS = 2

	// WarningLeadS is how long before the planned end the rider is warned
	WarningLeadS = 2

	// CancelCooldownS is how long after a cancellation no new workout starts
	CancelCooldownS = 5

	// UTurnLeadS is roughly how long a U-turn takes to execute
	UTurnLeadS = 3
)

// Distance constants, in meters. These are tuned against the simulator and
// kept as observed, including the asymmetry between the start and cancel
// margins.
const (
	kilometerM = 1000

	// SafetyMarginM is added to every estimated end before it is compared
	// with a boundary.
	SafetyMarginM = 10

	// KmCancelWindowM is where in the kilometer a running workout may be
	// cancelled for overrunning the mark.
	KmCancelWindowM = 950

	// ArchStartGapM keeps a start clear of the arch just passed
	ArchStartGapM = 40

	// UTurnStartGapM delays starts in U-turn mode so the arch bonus after
	// the turn can be collected first.
	UTurnStartGapM = 30

	// UTurnMinDistanceM is the distance below which no U-turn is made
	UTurnMinDistanceM = 1000

	// UTurnTriggerM is the predicted in-kilometer position that fires the turn
	UTurnTriggerM = 493

	// UTurnPreWarnLowM and UTurnPreWarnHighM bound, exclusively, the
	// predicted in-kilometer positions that sound the pre-warning.
	UTurnPreWarnLowM  = 480
	UTurnPreWarnHighM = 490

	// UTurnResetM re-arms the U-turn once the rider is this far into a new
	// kilometer.
	UTurnResetM = 300
)

// Session limits
const (
	MaxClimbDistanceM = 50000
	MaxLeadInM        = 15000
)

// Smoothing windows
const (
	SpeedWindowS = telemetry.DefaultWindowSeconds
	PowerWindowS = telemetry.DefaultWindowSeconds
)

// Phase is the workout overlay state
type Phase int

const (
	PhaseIdle   Phase = iota // No workout running
	PhaseActive              // A workout is running until EndTimeS
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// floorDiv is integer division rounding toward negative infinity
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the modulo matching floorDiv, always in [0, b) for b > 0
func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
