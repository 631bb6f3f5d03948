package alert

import (
	"log"
	"sync"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/lowaak/auto-workout/internal/go_func_utils"
)

const alertQueueSize = 4

// Alerter plays the warning tone for Warning and PreWarning signals. Tones run
// on a worker goroutine so OnAction never blocks the caller.
type Alerter struct {
	beeper Beeper
	logger *log.Logger

	cueChan      chan autoworkout.ActionKind
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewAlerter creates an Alerter and starts its worker
func NewAlerter(beeper Beeper, logger *log.Logger) *Alerter {
	if beeper == nil {
		panic("Alerter: beeper cannot be nil")
	}
	if logger == nil {
		panic("Alerter: logger cannot be nil")
	}

	a := &Alerter{
		beeper:   beeper,
		logger:   logger,
		cueChan:  make(chan autoworkout.ActionKind, alertQueueSize),
		doneChan: make(chan struct{}),
	}

	a.wg.Add(1)
	go_func_utils.SafeGo(logger, "Alerter.run", a.run)
	return a
}

// OnAction queues a warning tone for advisory signals and ignores everything
// else. A cue is dropped when the queue is full.
func (a *Alerter) OnAction(act autoworkout.Action) {
	if !act.Kind.IsSignal() {
		return
	}
	select {
	case <-a.doneChan:
	case a.cueChan <- act.Kind:
	default:
		a.logger.Printf("Alerter: dropped %s cue, queue full", act.Kind)
	}
}

func (a *Alerter) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.doneChan:
			return
		case <-a.cueChan:
			Warn(a.beeper)
		}
	}
}

// Shutdown stops the worker. Queued cues are discarded.
func (a *Alerter) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.doneChan)
		a.wg.Wait()
	})
}
