package autoworkout

import "fmt"

// ActionKind identifies a command or signal for the automation layer
type ActionKind int

const (
	ActionStart      ActionKind = iota // Start the workout at WorkoutIndex
	ActionCancel                       // Force-end the running workout
	ActionClose                        // Close the finished workout's dialog
	ActionUTurn                        // Turn around
	ActionUsePowerup                   // Spend the held powerup
	ActionWarning                      // Running workout is about to end
	ActionPreWarning                   // U-turn is coming up
)

func (k ActionKind) String() string {
	switch k {
	case ActionStart:
		return "start"
	case ActionCancel:
		return "cancel"
	case ActionClose:
		return "close"
	case ActionUTurn:
		return "uturn"
	case ActionUsePowerup:
		return "use-powerup"
	case ActionWarning:
		return "warning"
	case ActionPreWarning:
		return "pre-warning"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// IsSignal reports whether k is advisory only and changes nothing in the
// simulator.
func (k ActionKind) IsSignal() bool {
	return k == ActionWarning || k == ActionPreWarning
}

// Action is one fire-and-forget instruction produced by the engine
type Action struct {
	Kind         ActionKind
	WorkoutIndex int    // ActionStart only
	WorkoutName  string // ActionStart only
	TimeS        int    // simulator time the action was decided at
	DistanceM    int    // distance the action was decided at
}

func (a Action) String() string {
	if a.Kind == ActionStart {
		return fmt.Sprintf("start %d (%s)", a.WorkoutIndex, a.WorkoutName)
	}
	return a.Kind.String()
}

// Dispatcher delivers actions to the automation layer. Dispatch must not
// block: the engine calls it from the tick loop and never waits for a result.
type Dispatcher interface {
	Dispatch(a Action)
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(a Action)

// Dispatch calls f(a)
func (f DispatcherFunc) Dispatch(a Action) {
	f(a)
}
