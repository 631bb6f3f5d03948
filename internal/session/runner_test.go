package session

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/lowaak/auto-workout/internal/feed"
	"github.com/lowaak/auto-workout/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncRecorder struct {
	mu      sync.Mutex
	actions []autoworkout.Action
}

func (s *syncRecorder) Dispatch(a autoworkout.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
}

func (s *syncRecorder) kinds() []autoworkout.ActionKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]autoworkout.ActionKind, len(s.actions))
	for i, a := range s.actions {
		out[i] = a.Kind
	}
	return out
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

var thirty = workout.Definition{Name: "thirty", DurationS: 30, OnPowerFTP: 1.0}

func TestRunner_WaitsForFTPThenStarts(t *testing.T) {
	var logs safeBuffer
	rec := &syncRecorder{}
	r := NewRunner(Options{Definitions: []workout.Definition{thirty}}, rec, log.New(&logs, "", 0))
	defer r.Shutdown()

	statusChan := make(chan autoworkout.Status, 16)
	r.ListenToStatus(statusChan)

	var ticks int
	var ticksMu sync.Mutex
	r.OnTick(func(autoworkout.Status) {
		ticksMu.Lock()
		ticks++
		ticksMu.Unlock()
	})

	r.Events() <- feed.Event{FTP: 0, DistanceM: 0, ElapsedTimeS: 0, PowerW: 200}
	r.Events() <- feed.Event{FTP: -1, DistanceM: 0, ElapsedTimeS: 0, PowerW: 200}
	for ts := 0; ts <= 4; ts++ {
		r.Events() <- feed.Event{FTP: 200, DistanceM: float64(10 * ts), ElapsedTimeS: float64(ts), PowerW: 200}
	}

	require.Eventually(t, func() bool {
		return len(rec.kinds()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, r.Initialized())
	assert.Equal(t, autoworkout.ActionStart, rec.kinds()[0])

	var last autoworkout.Status
	require.Eventually(t, func() bool {
		for {
			select {
			case st := <-statusChan:
				last = st
			default:
				return last.TimeS == 4
			}
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, autoworkout.PhaseActive, last.Phase)
	assert.Equal(t, "thirty", last.WorkoutName)

	ticksMu.Lock()
	assert.Equal(t, 5, ticks)
	ticksMu.Unlock()

	assert.Equal(t, 1, strings.Count(logs.String(), "waiting for an event with a positive FTP"))
	assert.Contains(t, logs.String(), "Runner: Session started, 1 workouts")
}

func TestRunner_CancelWorkout(t *testing.T) {
	var logs safeBuffer
	rec := &syncRecorder{}
	r := NewRunner(Options{Definitions: []workout.Definition{thirty}}, rec, log.New(&logs, "", 0))
	defer r.Shutdown()

	r.CancelWorkout()
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "No workout to cancel")
	}, time.Second, 5*time.Millisecond)

	for ts := 0; ts <= 4; ts++ {
		r.Events() <- feed.Event{FTP: 200, DistanceM: float64(10 * ts), ElapsedTimeS: float64(ts), PowerW: 200}
	}
	require.Eventually(t, func() bool { return len(rec.kinds()) == 1 }, time.Second, 5*time.Millisecond)

	r.CancelWorkout()
	require.Eventually(t, func() bool { return len(rec.kinds()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []autoworkout.ActionKind{autoworkout.ActionStart, autoworkout.ActionCancel}, rec.kinds())
}

func TestRunner_RejectsOutOfOrderTicks(t *testing.T) {
	var logs safeBuffer
	r := NewRunner(Options{}, &syncRecorder{}, log.New(&logs, "", 0))
	defer r.Shutdown()

	for _, ts := range []int{0, 2, 4, 1} {
		r.Events() <- feed.Event{FTP: 200, DistanceM: float64(10 * ts), ElapsedTimeS: float64(ts), PowerW: 150}
	}
	require.Eventually(t, func() bool { return r.Rejected() == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, logs.String(), "Runner: Rejected tick")
}

func TestRunner_InvalidSession(t *testing.T) {
	var logs safeBuffer
	rec := &syncRecorder{}
	r := NewRunner(Options{ClimbDistanceM: 60000}, rec, log.New(&logs, "", 0))
	defer r.Shutdown()

	for ts := 0; ts <= 3; ts++ {
		r.Events() <- feed.Event{FTP: 200, DistanceM: float64(ts), ElapsedTimeS: float64(ts), PowerW: 150}
	}
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Cannot start session")
	}, time.Second, 5*time.Millisecond)
	assert.False(t, r.Initialized())
	assert.Equal(t, 1, strings.Count(logs.String(), "Cannot start session"))
}

func TestRunner_ShutdownIsIdempotent(t *testing.T) {
	r := NewRunner(Options{}, &syncRecorder{}, log.New(&safeBuffer{}, "", 0))
	r.Shutdown()
	r.Shutdown()
}

func TestNewRunner_NilArguments(t *testing.T) {
	assert.Panics(t, func() { NewRunner(Options{}, nil, log.New(&safeBuffer{}, "", 0)) })
	assert.Panics(t, func() { NewRunner(Options{}, &syncRecorder{}, nil) })
}
