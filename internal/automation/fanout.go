package automation

import (
	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/lowaak/auto-workout/internal/events"
)

// Fanout is a Dispatcher that forwards every action to all registered
// listeners, synchronously and in registration order. Listeners must not
// block.
type Fanout struct {
	event *events.CallbackEvent[autoworkout.Action]
}

// NewFanout creates an empty Fanout
func NewFanout() *Fanout {
	return &Fanout{event: events.NewCallbackEvent[autoworkout.Action](false)}
}

// Dispatch forwards a to every listener
func (f *Fanout) Dispatch(a autoworkout.Action) {
	f.event.Notify(a)
}

// Listen registers fn and returns its unregister function
func (f *Fanout) Listen(fn func(autoworkout.Action)) func() {
	return f.event.Listen(fn)
}

// Attach registers d as a listener
func (f *Fanout) Attach(d autoworkout.Dispatcher) func() {
	return f.event.Listen(d.Dispatch)
}
