package events

import (
	"sync"
)

type callbackListener[T any] struct {
	id uint64
	fn func(T)
}

// CallbackEvent is a synchronous pub/sub hub. Listeners are called in the
// order they registered, on the goroutine that calls Notify.
type CallbackEvent[T any] struct {
	mu                    sync.RWMutex
	listeners             []callbackListener[T]
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             T
	hasNotified           bool
}

// NewCallbackEvent creates a new CallbackEvent.
// When sendLastEventOnListen is true a new listener is immediately called with
// the most recent Notify value, if there has been one.
func NewCallbackEvent[T any](sendLastEventOnListen bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// Listen registers callback and returns a function that removes it again.
// The returned function may be called any number of times.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, callbackListener[T]{id: id, fn: callback})
	replay := e.sendLastEventOnListen && e.hasNotified
	last := e.lastEvent
	e.mu.Unlock()

	// outside the lock, the callback may call back into the event
	if replay {
		callback(last)
	}

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every registered listener with value, in registration order.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sendLastEventOnListen {
		e.lastEvent = value
		e.hasNotified = true
	}
	snapshot := make([]callbackListener[T], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	for _, l := range snapshot {
		l.fn(value)
	}
}

// Last returns the most recent notified value. ok is false when the event
// does not remember values or Notify was never called.
func (e *CallbackEvent[T]) Last() (value T, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastEvent, e.hasNotified
}

// ListenerCount returns the number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
