package events

import (
	"sync"
	"sync/atomic"
)

// ChannelEvent fans values out to listener channels. Sends never block: a
// listener whose channel is full misses that value and the miss is counted.
type ChannelEvent[T any] struct {
	mu                    sync.RWMutex
	channels              map[uint64]chan<- T
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             T
	hasNotified           bool
	dropped               atomic.Uint64
}

// NewChannelEvent creates a new ChannelEvent.
// When sendLastEventOnListen is true a new listener channel receives the most
// recent Notify value straight away, if there has been one.
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels:              make(map[uint64]chan<- T),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// Listen registers ch and returns a function that removes it again.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	replay := e.sendLastEventOnListen && e.hasNotified
	last := e.lastEvent
	e.mu.Unlock()

	if replay {
		e.send(ch, last)
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify offers value to every registered channel without blocking.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sendLastEventOnListen {
		e.lastEvent = value
		e.hasNotified = true
	}
	snapshot := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		snapshot = append(snapshot, ch)
	}
	e.mu.Unlock()

	for _, ch := range snapshot {
		e.send(ch, value)
	}
}

func (e *ChannelEvent[T]) send(ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
		e.dropped.Add(1)
	}
}

// Last returns the most recent notified value. ok is false when the event
// does not remember values or Notify was never called.
func (e *ChannelEvent[T]) Last() (value T, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastEvent, e.hasNotified
}

// Dropped returns how many sends were skipped because a listener was full
func (e *ChannelEvent[T]) Dropped() uint64 {
	return e.dropped.Load()
}

// ListenerCount returns the number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}
