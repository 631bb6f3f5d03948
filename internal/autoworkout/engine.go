// Package autoworkout decides, tick by tick, when to start, cancel or close a
// workout so that each one finishes just short of the next bonus boundary.
package autoworkout

import (
	"errors"
	"fmt"
	"log"

	"github.com/lowaak/auto-workout/internal/boundary"
	"github.com/lowaak/auto-workout/internal/telemetry"
	"github.com/lowaak/auto-workout/internal/workout"
)

// ErrInvalidSession is returned by NewEngine for an unusable SessionConfig
var ErrInvalidSession = errors.New("invalid session config")

// SessionConfig is fixed for the lifetime of an Engine
type SessionConfig struct {
	FTP            float64
	FixedWattW     int // 0 means follow the rider's average power
	UTurnMode      bool
	ClimbDistanceM int // 0 disables climb mode
	LeadInM        int
}

// ClimbMode reports whether boundaries are climb arches rather than kilometers
func (c SessionConfig) ClimbMode() bool {
	return c.ClimbDistanceM > 0
}

// Validate checks the session limits
func (c SessionConfig) Validate() error {
	switch {
	case c.FTP <= 0:
		return fmt.Errorf("%w: ftp must be positive, got %v", ErrInvalidSession, c.FTP)
	case c.FixedWattW < 0:
		return fmt.Errorf("%w: fixed watt must not be negative, got %d", ErrInvalidSession, c.FixedWattW)
	case c.ClimbDistanceM < 0 || c.ClimbDistanceM >= MaxClimbDistanceM:
		return fmt.Errorf("%w: climb distance must be in [0, %d) m, got %d", ErrInvalidSession, MaxClimbDistanceM, c.ClimbDistanceM)
	case c.LeadInM < 0 || c.LeadInM >= MaxLeadInM:
		return fmt.Errorf("%w: lead-in must be in [0, %d) m, got %d", ErrInvalidSession, MaxLeadInM, c.LeadInM)
	}
	return nil
}

// State is the mutable overlay state owned by the Engine
type State struct {
	Phase      Phase
	StartTimeS int // valid while Active
	EndTimeS   int // valid while Active
	Workout    workout.Descriptor

	// LastCancelTimeS starts at 0, so climb mode also holds off starts for
	// the first CancelCooldownS seconds of a session.
	LastCancelTimeS int
	LastCancelKm    int // -1 until the first cancellation
	UTurnDone       bool
}

// Engine is the workout phase state machine. It is not safe for concurrent
// use; a single goroutine must feed it ticks.
type Engine struct {
	cfg        SessionConfig
	catalog    *workout.Catalog
	history    *telemetry.History
	predictor  boundary.Predictor
	archGapM   int // arch spacing minus ArchStartGapM, climb mode only
	dispatcher Dispatcher
	logger     *log.Logger

	state State
	tick  *Status // status being built by the current call
}

// NewEngine creates an engine for one session. catalog may be empty, in
// which case no workout is ever started.
func NewEngine(cfg SessionConfig, catalog *workout.Catalog, dispatcher Dispatcher, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	if dispatcher == nil {
		panic("Engine: dispatcher cannot be nil")
	}
	if catalog == nil {
		catalog = workout.NewCatalog(nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		catalog:    catalog,
		history:    telemetry.NewHistory(),
		predictor:  boundary.New(cfg.ClimbDistanceM, cfg.LeadInM),
		archGapM:   boundary.NewClimbArch(cfg.ClimbDistanceM, cfg.LeadInM).Spacing() - ArchStartGapM,
		dispatcher: dispatcher,
		logger:     logger,
		state: State{
			Phase:        PhaseIdle,
			LastCancelKm: -1,
		},
	}

	e.logger.Printf("Engine: Profile FTP=%.0f", cfg.FTP)
	if cfg.FixedWattW > 0 {
		e.logger.Printf("Engine: Using fixed target power %dw", cfg.FixedWattW)
	}
	if cfg.ClimbMode() {
		e.logger.Printf("Engine: Climb mode, %d m climb after %d m lead-in", cfg.ClimbDistanceM, cfg.LeadInM)
		if cfg.UTurnMode {
			e.logger.Printf("Engine: Warning: U-turns are not made in climb mode")
		}
	}
	if catalog.Len() == 0 {
		e.logger.Printf("Engine: Warning: no workouts available, none will be started")
	} else {
		for _, d := range catalog.Descriptors() {
			e.logger.Printf("Engine: Workout %d %q %ds @ %dw", d.Index, d.Name, d.DurationS, d.TargetPowerW)
		}
	}

	return e, nil
}

// Config returns the session configuration
func (e *Engine) Config() SessionConfig {
	return e.cfg
}

// State returns a copy of the current overlay state
func (e *Engine) State() State {
	return e.state
}

// OnTick processes one telemetry sample. The sample is rejected with
// telemetry.ErrOutOfOrder if it is older than the history and matches no
// buffered time; the state is left untouched in that case.
func (e *Engine) OnTick(distanceM, timeS, powerW float64) (Status, error) {
	d, now, p := int(distanceM), int(timeS), int(powerW)
	if err := e.history.Append(telemetry.Sample{TimeS: now, DistanceM: d, PowerW: p}); err != nil {
		return Status{}, err
	}

	st := Status{TimeS: now, DistanceM: d, PowerW: p, Phase: e.state.Phase}
	if !e.history.Ready() {
		return st, nil
	}

	e.tick = &st
	defer func() { e.tick = nil }()

	speed, _ := e.history.AvgSpeed(SpeedWindowS)
	avgPower, _ := e.history.AvgPower(PowerWindowS)
	st.Ready = true
	st.SpeedMPS = speed
	st.AvgPowerW = avgPower

	if e.cfg.UTurnMode && !e.cfg.ClimbMode() {
		e.evaluateUTurn(d, speed)
	}

	// a workout that closes this tick may be followed by the next start;
	// after a cancel the cooldown keeps the engine idle
	if e.state.Phase == PhaseActive {
		e.evaluateActive(d, now, speed)
	}
	if e.state.Phase == PhaseIdle {
		e.evaluateStart(d, now, speed, avgPower)
	}

	st.Phase = e.state.Phase
	if e.state.Phase == PhaseActive {
		st.WorkoutName = e.state.Workout.Name
		st.SecsLeft = e.state.EndTimeS - now
	}
	return st, nil
}

// ForceCancel ends the running workout at the last seen position, with the
// same cooldown as a predicted cancellation. It returns false when idle.
func (e *Engine) ForceCancel() bool {
	if e.state.Phase != PhaseActive {
		return false
	}
	last, _ := e.history.Latest()
	e.logger.Printf("Engine: Operator cancelled workout %q", e.state.Workout.Name)
	e.cancel(last.DistanceM, last.TimeS)
	return true
}

func (e *Engine) evaluateUTurn(d int, speed float64) {
	if e.state.UTurnDone {
		if floorMod(d, kilometerM) < UTurnResetM {
			e.state.UTurnDone = false
		}
		return
	}

	if d <= UTurnMinDistanceM {
		return
	}
	turnAt := floorMod(int(float64(d)+speed*UTurnLeadS), kilometerM)
	switch {
	case turnAt >= UTurnTriggerM:
		e.logf("U-Turn")
		e.dispatch(Action{Kind: ActionUTurn})
		e.state.UTurnDone = true
	case turnAt > UTurnPreWarnLowM && turnAt < UTurnPreWarnHighM:
		e.dispatch(Action{Kind: ActionPreWarning})
	}
}

// evaluateActive handles the warning, close and cancel checks
func (e *Engine) evaluateActive(d, now int, speed float64) {
	end := e.state.EndTimeS
	if now < end && end-now <= WarningLeadS {
		e.dispatch(Action{Kind: ActionWarning})
	}

	if now >= end {
		e.logf("Closing dialog")
		e.state.Phase = PhaseIdle
		e.state.Workout = workout.Descriptor{}
		e.dispatch(Action{Kind: ActionClose})
		return
	}

	estEnd := int(float64(d) + speed*float64(end-now))
	if e.shouldCancel(d, estEnd) {
		e.logf("Est. end for cur wo: %.3f", float64(estEnd+SafetyMarginM)/1000)
		e.cancel(d, now)
		return
	}

	e.tick.EstEndM = estEnd
	e.tick.HasEstEnd = true
}

func (e *Engine) cancel(d, now int) {
	e.logf("Cancelling workout")
	e.state.Phase = PhaseIdle
	e.state.Workout = workout.Descriptor{}
	e.state.LastCancelTimeS = now
	e.state.LastCancelKm = floorDiv(d, kilometerM)
	e.dispatch(Action{Kind: ActionCancel})
}

func (e *Engine) evaluateStart(d, now int, speed float64, avgPower int) {
	target := e.cfg.FixedWattW
	if target == 0 {
		target = avgPower
	}
	wo, ok := e.catalog.Nearest(target)
	if !ok {
		return
	}

	hold := wo.DurationS + ActionDelayS + 1
	estEnd := int(float64(d) + speed*float64(hold))
	if !e.canStart(d, now, estEnd) {
		return
	}

	e.logf("Starting workout %q (avg power: %d), dur: %d", wo.Name, target, wo.DurationS)
	if e.cfg.UTurnMode {
		e.dispatch(Action{Kind: ActionUsePowerup})
	}
	e.state.Phase = PhaseActive
	e.state.Workout = wo
	e.state.StartTimeS = now
	e.state.EndTimeS = now + hold
	e.dispatch(Action{Kind: ActionStart, WorkoutIndex: wo.Index, WorkoutName: wo.Name})

	e.tick.EstEndM = estEnd
	e.tick.HasEstEnd = true
}

func (e *Engine) canStart(d, now, estEnd int) bool {
	km := floorDiv(d, kilometerM)
	sameKm := floorDiv(estEnd+SafetyMarginM, kilometerM) == km

	if e.cfg.ClimbMode() {
		next := e.predictor.NextBoundary(d)
		return next > d &&
			next-d < e.archGapM &&
			estEnd < next-SafetyMarginM &&
			sameKm &&
			now-e.state.LastCancelTimeS > CancelCooldownS
	}

	coolingDown := km == e.state.LastCancelKm && now-e.state.LastCancelTimeS <= CancelCooldownS
	if !sameKm || coolingDown {
		return false
	}
	return !e.cfg.UTurnMode || floorMod(d, kilometerM) >= UTurnStartGapM
}

func (e *Engine) shouldCancel(d, estEnd int) bool {
	if e.cfg.ClimbMode() {
		return estEnd+SafetyMarginM >= e.predictor.NextBoundary(d)
	}
	return floorDiv(estEnd+SafetyMarginM, kilometerM) > floorDiv(d, kilometerM) &&
		floorMod(d, kilometerM) >= KmCancelWindowM
}

func (e *Engine) dispatch(a Action) {
	if last, ok := e.history.Latest(); ok {
		a.TimeS = last.TimeS
		a.DistanceM = last.DistanceM
	}
	if e.tick != nil {
		e.tick.Actions = append(e.tick.Actions, a)
	}
	e.dispatcher.Dispatch(a)
}

// logf prefixes a decision log line with the current tick's header
func (e *Engine) logf(format string, args ...any) {
	header := ""
	if e.tick != nil {
		header = e.tick.Header() + " "
	}
	e.logger.Printf("Engine: "+header+format, args...)
}
