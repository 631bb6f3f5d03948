package alert

import (
	"bytes"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/lowaak/auto-workout/internal/autoworkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tone struct {
	freq int
	d    time.Duration
}

type recordingBeeper struct {
	mu    sync.Mutex
	tones []tone
}

func (r *recordingBeeper) Beep(freqHz int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = append(r.tones, tone{freqHz, d})
}

func (r *recordingBeeper) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tones)
}

func TestWarn(t *testing.T) {
	rec := &recordingBeeper{}
	Warn(rec)
	assert.Equal(t, []tone{{2000, 50 * time.Millisecond}, {2000, 50 * time.Millisecond}, {2000, 50 * time.Millisecond}}, rec.tones)
}

func TestLogBeeper(t *testing.T) {
	var buf bytes.Buffer
	NewLogBeeper(log.New(&buf, "", 0)).Beep(1000, 100*time.Millisecond)
	assert.Equal(t, "Beeper: 1000 Hz for 100ms\n", buf.String())
}

func TestAlerter_SignalsOnly(t *testing.T) {
	rec := &recordingBeeper{}
	a := NewAlerter(rec, log.New(&bytes.Buffer{}, "", 0))
	defer a.Shutdown()

	a.OnAction(autoworkout.Action{Kind: autoworkout.ActionStart})
	a.OnAction(autoworkout.Action{Kind: autoworkout.ActionWarning})
	a.OnAction(autoworkout.Action{Kind: autoworkout.ActionCancel})
	a.OnAction(autoworkout.Action{Kind: autoworkout.ActionPreWarning})

	require.Eventually(t, func() bool { return rec.count() == 2*WarnRepeat }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2*WarnRepeat, rec.count())
}

func TestAlerter_ShutdownIsIdempotent(t *testing.T) {
	a := NewAlerter(NopBeeper{}, log.New(&bytes.Buffer{}, "", 0))
	a.Shutdown()
	a.Shutdown()
	// after shutdown cues are ignored without blocking
	a.OnAction(autoworkout.Action{Kind: autoworkout.ActionWarning})
}

type fakeLine struct {
	values []int
	closed bool
	err    error
}

func (f *fakeLine) SetValue(v int) error {
	f.values = append(f.values, v)
	return f.err
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

func TestGPIOBeeper_PulsesLine(t *testing.T) {
	var slept []time.Duration
	line := &fakeLine{}
	b := &GPIOBeeper{line: line, logger: log.New(&bytes.Buffer{}, "", 0), sleep: func(d time.Duration) { slept = append(slept, d) }}

	b.Beep(2000, 50*time.Millisecond)
	assert.Equal(t, []int{1, 0}, line.values)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, slept)

	require.NoError(t, b.Close())
	assert.True(t, line.closed)

	// closed beeper is silent
	b.Beep(2000, time.Millisecond)
	assert.Len(t, line.values, 2)
}

func TestGPIOBeeper_SetValueError(t *testing.T) {
	var buf bytes.Buffer
	line := &fakeLine{err: errors.New("busy")}
	b := &GPIOBeeper{line: line, logger: log.New(&buf, "", 0), sleep: func(time.Duration) {}}

	b.Beep(2000, time.Millisecond)
	assert.Equal(t, []int{1}, line.values)
	assert.Contains(t, buf.String(), "failed to set buzzer on: busy")
}

func TestGPIOBeeper_DryRun(t *testing.T) {
	var buf bytes.Buffer
	b, err := NewGPIOBeeper(DefaultChip, 17, log.New(&buf, "", 0), true)
	require.NoError(t, err)
	b.Beep(2000, 50*time.Millisecond)
	assert.Contains(t, buf.String(), "DRY RUN: Would beep 2000 Hz for 50ms")
	assert.NoError(t, b.Close())
}
