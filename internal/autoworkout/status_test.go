package autoworkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Header(t *testing.T) {
	st := Status{TimeS: 1000, DistanceM: 3125, SpeedMPS: 9, AvgPowerW: 187}
	assert.Equal(t, "0:16:40 3.125 32.4kph 187w", st.Header())

	st = Status{TimeS: 3725, DistanceM: 40, SpeedMPS: 1, AvgPowerW: 5}
	assert.Equal(t, "1:02:05 0.040  3.6kph   5w", st.Header())
}

func TestStatus_WorkoutInfo(t *testing.T) {
	assert.Equal(t, "", Status{}.WorkoutInfo())

	st := Status{Phase: PhaseActive, SecsLeft: 12, EstEndM: 3480, HasEstEnd: true}
	assert.Equal(t, "12 secs left [est. end: 3.480]", st.WorkoutInfo())

	st.HasEstEnd = false
	assert.Equal(t, "12 secs left", st.WorkoutInfo())
}

func TestStatus_Speeds(t *testing.T) {
	st := Status{SpeedMPS: 10}
	assert.InDelta(t, 36.0, st.SpeedKph(), 1e-9)
	assert.InDelta(t, 22.369, st.SpeedMph(), 1e-3)
}

func TestActionKind_String(t *testing.T) {
	assert.Equal(t, "start", ActionStart.String())
	assert.Equal(t, "use-powerup", ActionUsePowerup.String())
	assert.Equal(t, "action(42)", ActionKind(42).String())
	assert.True(t, ActionWarning.IsSignal())
	assert.False(t, ActionCancel.IsSignal())
	assert.Equal(t, "start 3 (Tempo)", Action{Kind: ActionStart, WorkoutIndex: 3, WorkoutName: "Tempo"}.String())
}

func TestFloorHelpers(t *testing.T) {
	assert.Equal(t, -1, floorDiv(-5, 1000))
	assert.Equal(t, 995, floorMod(-5, 1000))
	assert.Equal(t, 2, floorDiv(2999, 1000))
	assert.Equal(t, 999, floorMod(2999, 1000))
}
