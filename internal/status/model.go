// Package status holds what the operator sees: the latest engine status,
// the session counters and the log pane, plus the views that render them.
package status

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/lowaak/auto-workout/internal/events"
	"github.com/lowaak/auto-workout/internal/go_func_utils"
)

const maxLogLines = 1000

// Counters tally the commands sent during the session
type Counters struct {
	Starts   int `json:"starts"`
	Cancels  int `json:"cancels"`
	Closes   int `json:"closes"`
	UTurns   int `json:"uturns"`
	Powerups int `json:"powerups"`
}

// Snapshot is the latest status together with the counters
type Snapshot struct {
	Status   autoworkout.Status
	Counters Counters
}

// StatusSource is anything that publishes engine statuses
type StatusSource interface {
	ListenToStatus(ch chan<- autoworkout.Status) func()
}

// Model holds the state the views render
type Model struct {
	logEvent              *events.ChannelEvent[string]
	snapshotEvent         *events.ChannelEvent[Snapshot]
	closeApplicationEvent *events.ChannelEvent[struct{}]

	mu       sync.RWMutex
	snapshot Snapshot

	logMu    sync.RWMutex
	logLines []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// NewModel creates a Model that collects log lines from uiLogChan until
// Shutdown. uiLogChan may be nil when logs are not shown in the UI.
func NewModel(logger *log.Logger, uiLogChan <-chan string) *Model {
	if logger == nil {
		panic("Model: logger cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		logEvent:              events.NewChannelEvent[string](false),
		snapshotEvent:         events.NewChannelEvent[Snapshot](true),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	if uiLogChan != nil {
		m.wg.Add(1)
		go_func_utils.SafeGo(logger, "Model.readFromLogChannel", func() { m.readFromLogChannel(uiLogChan) })
	}
	return m
}

// Bind follows src until Shutdown
func (m *Model) Bind(src StatusSource) {
	ch := make(chan autoworkout.Status, 8)
	unregister := src.ListenToStatus(ch)

	m.wg.Add(1)
	go_func_utils.SafeGo(m.logger, "Model.bind", func() {
		defer m.wg.Done()
		defer unregister()
		for {
			select {
			case <-m.ctx.Done():
				return
			case st := <-ch:
				m.SetStatus(st)
			}
		}
	})
}

// Shutdown stops all goroutines and waits for them to finish
func (m *Model) Shutdown() {
	m.logger.Println("Model: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("Model: Shutdown complete")
}

// SetStatus records st, counts its actions and notifies listeners
func (m *Model) SetStatus(st autoworkout.Status) {
	m.mu.Lock()
	m.snapshot.Status = st
	for _, a := range st.Actions {
		switch a.Kind {
		case autoworkout.ActionStart:
			m.snapshot.Counters.Starts++
		case autoworkout.ActionCancel:
			m.snapshot.Counters.Cancels++
		case autoworkout.ActionClose:
			m.snapshot.Counters.Closes++
		case autoworkout.ActionUTurn:
			m.snapshot.Counters.UTurns++
		case autoworkout.ActionUsePowerup:
			m.snapshot.Counters.Powerups++
		}
	}
	snap := m.snapshot
	m.mu.Unlock()

	m.snapshotEvent.Notify(snap)
}

// GetSnapshot returns the latest snapshot
func (m *Model) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ListenToSnapshot registers a channel to receive snapshot updates
// Returns a deregistration function that can be called to remove the listener
func (m *Model) ListenToSnapshot(ch chan<- Snapshot) func() {
	return m.snapshotEvent.Listen(ch)
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *Model) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *Model) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *Model) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// AppendLog stores line in the log buffer and notifies listeners
func (m *Model) AppendLog(line string) {
	m.logMu.Lock()
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
	m.logMu.Unlock()

	m.logEvent.Notify(line)
}

// GetLogTail returns the last n lines of logs
func (m *Model) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n > len(m.logLines) {
		n = len(m.logLines)
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

func (m *Model) readFromLogChannel(logChan <-chan string) {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}
			m.AppendLog(line)
		}
	}
}
