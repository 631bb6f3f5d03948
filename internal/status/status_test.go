package status

import (
	"bytes"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func TestSpinner(t *testing.T) {
	assert.Equal(t, "|", Spinner(0))
	assert.Equal(t, "/", Spinner(1))
	assert.Equal(t, "-", Spinner(2))
	assert.Equal(t, `\`, Spinner(3))
	assert.Equal(t, "|", Spinner(4))
	assert.Equal(t, `\`, Spinner(-1))
}

func TestStatusLine(t *testing.T) {
	idle := autoworkout.Status{TimeS: 61, DistanceM: 500, SpeedMPS: 10, AvgPowerW: 200, Ready: true}
	assert.Equal(t, "0:01:01 0.500 36.0kph 200w /", StatusLine(idle))

	active := idle
	active.Phase = autoworkout.PhaseActive
	active.SecsLeft = 20
	active.EstEndM = 700
	active.HasEstEnd = true
	assert.Equal(t, "0:01:01 0.500 36.0kph 200w 20 secs left [est. end: 0.700]", StatusLine(active))
}

func TestModel_CountsActions(t *testing.T) {
	m := NewModel(quietLogger(), nil)
	defer m.Shutdown()

	m.SetStatus(autoworkout.Status{TimeS: 1, Actions: []autoworkout.Action{
		{Kind: autoworkout.ActionUsePowerup}, {Kind: autoworkout.ActionStart},
	}})
	m.SetStatus(autoworkout.Status{TimeS: 2, Actions: []autoworkout.Action{{Kind: autoworkout.ActionWarning}}})
	m.SetStatus(autoworkout.Status{TimeS: 3, Actions: []autoworkout.Action{{Kind: autoworkout.ActionCancel}, {Kind: autoworkout.ActionUTurn}}})
	m.SetStatus(autoworkout.Status{TimeS: 4, Actions: []autoworkout.Action{{Kind: autoworkout.ActionClose}}})

	snap := m.GetSnapshot()
	assert.Equal(t, 4, snap.Status.TimeS)
	assert.Equal(t, Counters{Starts: 1, Cancels: 1, Closes: 1, UTurns: 1, Powerups: 1}, snap.Counters)
	assert.Equal(t, "started 1  closed 1  cancelled 1  u-turns 1", CountersLine(snap.Counters))
}

func TestModel_LogTail(t *testing.T) {
	logChan := make(chan string, 4)
	m := NewModel(quietLogger(), logChan)
	defer m.Shutdown()

	assert.Empty(t, m.GetLogTail(5))

	logChan <- "a\n"
	logChan <- "b\n"
	logChan <- "c\n"
	require.Eventually(t, func() bool { return len(m.GetLogTail(10)) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"b\n", "c\n"}, m.GetLogTail(2))
	assert.Empty(t, m.GetLogTail(0))

	for i := 0; i < maxLogLines+5; i++ {
		m.AppendLog(fmt.Sprintf("%d\n", i))
	}
	tail := m.GetLogTail(maxLogLines * 2)
	assert.Len(t, tail, maxLogLines)
	assert.Equal(t, fmt.Sprintf("%d\n", maxLogLines+4), tail[len(tail)-1])
}

type fakeSource struct {
	mu sync.Mutex
	ch chan<- autoworkout.Status
}

func (f *fakeSource) ListenToStatus(ch chan<- autoworkout.Status) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = ch
	return func() {}
}

func (f *fakeSource) send(st autoworkout.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch <- st
}

func TestModel_Bind(t *testing.T) {
	m := NewModel(quietLogger(), nil)
	src := &fakeSource{}
	m.Bind(src)

	src.send(autoworkout.Status{TimeS: 9})
	require.Eventually(t, func() bool { return m.GetSnapshot().Status.TimeS == 9 }, time.Second, 5*time.Millisecond)
	m.Shutdown()
}

type fakeCanceller struct{ calls int }

func (f *fakeCanceller) CancelWorkout() { f.calls++ }

func TestController(t *testing.T) {
	m := NewModel(quietLogger(), nil)
	defer m.Shutdown()
	canceller := &fakeCanceller{}
	c := NewController(m, canceller, quietLogger())

	closeChan := make(chan struct{}, 1)
	m.ListenToCloseApplication(closeChan)

	c.OnCancelKey()
	assert.Equal(t, 1, canceller.calls)

	c.OnQuitKey()
	select {
	case <-closeChan:
	case <-time.After(time.Second):
		t.Fatal("close not requested")
	}
}

func TestConsoleView(t *testing.T) {
	var buf bytes.Buffer
	v := NewConsoleView(&buf)

	v.UpdateSnapshot(Snapshot{Status: autoworkout.Status{TimeS: 2}})
	v.UpdateSnapshot(Snapshot{Status: autoworkout.Status{TimeS: 3, Actions: []autoworkout.Action{{Kind: autoworkout.ActionStart}}}})
	assert.Equal(t, "\r0:00:02 0.000  0.0kph   0w - \r0:00:03 0.000  0.0kph   0w \\ \n", buf.String())

	done := make(chan error)
	go func() { done <- v.Run() }()
	v.Stop()
	v.Stop()
	require.NoError(t, <-done)
}

type fakeView struct {
	mu        sync.Mutex
	snapshots []Snapshot
	lines     []string
	stopped   bool
	inited    bool
	keys      bool
}

func (f *fakeView) Initialize(*Controller)            { f.inited = true }
func (f *fakeView) SetupKeyboardHandlers(*Controller) { f.keys = true }
func (f *fakeView) Run() error                        { return nil }
func (f *fakeView) Draw() error                       { return nil }
func (f *fakeView) GetLogViewHeight() int             { return 2 }

func (f *fakeView) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeView) ClearLogView() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
}

func (f *fakeView) WriteLogLine(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeView) UpdateSnapshot(snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
}

func (f *fakeView) state() (int, []string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots), append([]string(nil), f.lines...), f.stopped
}

func TestBaseView_FollowsModel(t *testing.T) {
	m := NewModel(quietLogger(), nil)
	defer m.Shutdown()
	impl := &fakeView{}
	base := NewBaseView(impl, m, NewController(m, &fakeCanceller{}, quietLogger()), quietLogger())
	defer base.Shutdown()

	assert.True(t, impl.inited)
	assert.True(t, impl.keys)

	m.SetStatus(autoworkout.Status{TimeS: 1})
	require.Eventually(t, func() bool { n, _, _ := impl.state(); return n >= 1 }, time.Second, 5*time.Millisecond)

	m.AppendLog("one\n")
	m.AppendLog("two\n")
	m.AppendLog("three\n")
	require.Eventually(t, func() bool {
		_, lines, _ := impl.state()
		return assert.ObjectsAreEqual([]string{"two\n", "three\n"}, lines)
	}, time.Second, 5*time.Millisecond)

	m.RequestCloseApplication()
	require.Eventually(t, func() bool { _, _, stopped := impl.state(); return stopped }, time.Second, 5*time.Millisecond)
}
