// Package session drives the workout engine from a stream of telemetry
// events.
package session

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/lowaak/auto-workout/internal/events"
	"github.com/lowaak/auto-workout/internal/feed"
	"github.com/lowaak/auto-workout/internal/go_func_utils"
	"github.com/lowaak/auto-workout/internal/workout"
)

const eventQueueSize = 64

// runnerCommand represents commands sent to the runner goroutine
type runnerCommand int

const (
	cmdCancelWorkout runnerCommand = iota
)

// Options configure the engine the Runner builds. FTP is not part of it:
// it comes from the first usable telemetry event.
type Options struct {
	FixedWattW     int
	UTurnMode      bool
	ClimbDistanceM int
	LeadInM        int
	Definitions    []workout.Definition
}

// Runner owns the engine and feeds it one event at a time on its own
// goroutine. The engine is created on the first event with a positive FTP.
type Runner struct {
	opts       Options
	dispatcher autoworkout.Dispatcher
	logger     *log.Logger

	statusEvent *events.ChannelEvent[autoworkout.Status]
	tickEvent   *events.CallbackEvent[autoworkout.Status]

	// engine state, only touched by the loop goroutine
	engine    *autoworkout.Engine
	failed    bool
	warnedFTP bool

	initialized atomic.Bool
	rejected    atomic.Uint64

	eventChan    chan feed.Event
	cmdChan      chan runnerCommand
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewRunner creates a Runner and starts its loop
func NewRunner(opts Options, dispatcher autoworkout.Dispatcher, logger *log.Logger) *Runner {
	if dispatcher == nil {
		panic("Runner: dispatcher cannot be nil")
	}
	if logger == nil {
		panic("Runner: logger cannot be nil")
	}

	r := &Runner{
		opts:        opts,
		dispatcher:  dispatcher,
		logger:      logger,
		statusEvent: events.NewChannelEvent[autoworkout.Status](true),
		tickEvent:   events.NewCallbackEvent[autoworkout.Status](false),
		eventChan:   make(chan feed.Event, eventQueueSize),
		cmdChan:     make(chan runnerCommand, 1),
		doneChan:    make(chan struct{}),
	}

	r.wg.Add(1)
	go_func_utils.SafeGo(logger, "Runner.loop", r.runLoop)
	return r
}

// Events returns the channel sources write telemetry to
func (r *Runner) Events() chan<- feed.Event {
	return r.eventChan
}

// ListenToStatus registers ch for status updates. Slow listeners miss
// updates instead of blocking the loop.
func (r *Runner) ListenToStatus(ch chan<- autoworkout.Status) func() {
	return r.statusEvent.Listen(ch)
}

// OnTick registers fn to be called synchronously with every status, on the
// loop goroutine. fn must return quickly.
func (r *Runner) OnTick(fn func(autoworkout.Status)) func() {
	return r.tickEvent.Listen(fn)
}

// Initialized reports whether the engine has been created
func (r *Runner) Initialized() bool {
	return r.initialized.Load()
}

// Rejected returns the number of ticks the engine refused
func (r *Runner) Rejected() uint64 {
	return r.rejected.Load()
}

// CancelWorkout asks the engine to cancel the running workout
func (r *Runner) CancelWorkout() {
	select {
	case r.cmdChan <- cmdCancelWorkout:
	default:
		r.logger.Printf("Runner: cancel already pending")
	}
}

// Shutdown stops the loop. Events still queued are discarded.
// Safe to call multiple times - only the first call has effect
func (r *Runner) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.logger.Printf("Runner: Shutting down")
		close(r.doneChan)
		r.wg.Wait()
		r.logger.Printf("Runner: Shutdown complete")
	})
}

func (r *Runner) runLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.doneChan:
			r.logger.Printf("Runner: Goroutine exiting")
			return

		case cmd := <-r.cmdChan:
			switch cmd {
			case cmdCancelWorkout:
				if r.engine == nil || !r.engine.ForceCancel() {
					r.logger.Printf("Runner: No workout to cancel")
				}
			}

		case ev := <-r.eventChan:
			r.handleEvent(ev)
		}
	}
}

func (r *Runner) handleEvent(ev feed.Event) {
	if r.engine == nil && !r.initEngine(ev) {
		return
	}

	st, err := r.engine.OnTick(ev.DistanceM, ev.ElapsedTimeS, ev.PowerW)
	if err != nil {
		r.rejected.Add(1)
		r.logger.Printf("Runner: Rejected tick: %v", err)
		return
	}

	r.tickEvent.Notify(st)
	r.statusEvent.Notify(st)
}

// initEngine builds the engine from the first usable event. It returns false
// while no engine could be created.
func (r *Runner) initEngine(ev feed.Event) bool {
	if r.failed {
		return false
	}
	if ev.FTP <= 0 {
		if !r.warnedFTP {
			r.logger.Printf("Runner: Warning: waiting for an event with a positive FTP, got %v", ev.FTP)
			r.warnedFTP = true
		}
		return false
	}

	catalog := workout.NewCatalog(workout.Resolve(r.opts.Definitions, ev.FTP))
	cfg := autoworkout.SessionConfig{
		FTP:            ev.FTP,
		FixedWattW:     r.opts.FixedWattW,
		UTurnMode:      r.opts.UTurnMode,
		ClimbDistanceM: r.opts.ClimbDistanceM,
		LeadInM:        r.opts.LeadInM,
	}
	engine, err := autoworkout.NewEngine(cfg, catalog, r.dispatcher, r.logger)
	if err != nil {
		r.logger.Printf("Runner: Cannot start session: %v", err)
		r.failed = true
		return false
	}

	r.engine = engine
	r.initialized.Store(true)
	r.logger.Printf("Runner: Session started, %d workouts", catalog.Len())
	return true
}
