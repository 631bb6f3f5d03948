// Package automation carries engine actions to whatever drives the
// simulator: an AutoHotkey script, an MQTT topic, a Redis channel or a log.
package automation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// Executor performs one action against the simulator. Implementations are
// called from a single worker goroutine.
type Executor interface {
	Execute(ctx context.Context, a autoworkout.Action) error
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, a autoworkout.Action) error

// Execute calls f(ctx, a)
func (f ExecutorFunc) Execute(ctx context.Context, a autoworkout.Action) error {
	return f(ctx, a)
}

// Message is the wire form of an action for the broker executors
type Message struct {
	Action    string    `json:"action"`
	Workout   int       `json:"workout,omitempty"` // 1-based, start only
	Name      string    `json:"name,omitempty"`
	TimeS     int       `json:"time_s"`
	DistanceM int       `json:"distance_m"`
	SentAt    time.Time `json:"sent_at"`
}

// NewMessage builds the wire form of a
func NewMessage(a autoworkout.Action, now time.Time) Message {
	m := Message{
		Action:    a.Kind.String(),
		TimeS:     a.TimeS,
		DistanceM: a.DistanceM,
		SentAt:    now.UTC(),
	}
	if a.Kind == autoworkout.ActionStart {
		m.Workout = a.WorkoutIndex + 1
		m.Name = a.WorkoutName
	}
	return m
}

func encodeMessage(m Message) ([]byte, error) {
	return json.Marshal(m)
}
