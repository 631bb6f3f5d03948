package automation

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/lowaak/auto-workout/internal/go_func_utils"
)

// DefaultQueueSize bounds the number of actions waiting for the executor
const DefaultQueueSize = 16

// DefaultActionTimeout bounds a single Execute call
const DefaultActionTimeout = 10 * time.Second

// Async is a Dispatcher that hands actions to an Executor on a worker
// goroutine. Dispatch never blocks; when the queue is full the action is
// dropped and logged.
type Async struct {
	executor Executor
	logger   *log.Logger
	timeout  time.Duration

	queue        chan autoworkout.Action
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	dropped      atomic.Uint64
	failed       atomic.Uint64
}

// NewAsync starts the worker. A queueSize or timeout of zero selects the
// default.
func NewAsync(executor Executor, queueSize int, timeout time.Duration, logger *log.Logger) *Async {
	if executor == nil {
		panic("Async: executor cannot be nil")
	}
	if logger == nil {
		panic("Async: logger cannot be nil")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	a := &Async{
		executor: executor,
		logger:   logger,
		timeout:  timeout,
		queue:    make(chan autoworkout.Action, queueSize),
		doneChan: make(chan struct{}),
	}
	a.wg.Add(1)
	go_func_utils.SafeGo(logger, "Async.run", a.run)
	return a
}

// Dispatch queues act for execution
func (a *Async) Dispatch(act autoworkout.Action) {
	select {
	case <-a.doneChan:
		a.dropped.Add(1)
		return
	default:
	}

	select {
	case a.queue <- act:
	default:
		a.dropped.Add(1)
		a.logger.Printf("Automation: queue full, dropped %s", act)
	}
}

// Dropped returns the number of actions that were never executed
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Failed returns the number of actions whose Execute returned an error
func (a *Async) Failed() uint64 {
	return a.failed.Load()
}

func (a *Async) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.doneChan:
			return
		case act := <-a.queue:
			a.execute(act)
		}
	}
}

func (a *Async) execute(act autoworkout.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.executor.Execute(ctx, act); err != nil {
		a.failed.Add(1)
		a.logger.Printf("Automation: %s failed: %v", act, err)
	}
}

// Shutdown stops the worker after the action in progress. Actions still
// queued are counted as dropped.
func (a *Async) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.doneChan)
		a.wg.Wait()
		for {
			select {
			case <-a.queue:
				a.dropped.Add(1)
			default:
				return
			}
		}
	})
}
