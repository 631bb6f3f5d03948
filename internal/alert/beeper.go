// Package alert sounds audible cues for upcoming workout ends, U-turns and
// automation commands.
package alert

import (
	"log"
	"time"
)

// Tones used around automation commands and for warnings
const (
	CommandToneHz   = 2000
	CommandDoneHz   = 1000
	CommandToneTime = 100 * time.Millisecond

	WarnToneHz   = 2000
	WarnToneTime = 50 * time.Millisecond
	WarnRepeat   = 3
)

// Beeper plays a single tone and returns when it has finished
type Beeper interface {
	Beep(freqHz int, d time.Duration)
}

// NopBeeper is silent
type NopBeeper struct{}

// Beep does nothing
func (NopBeeper) Beep(int, time.Duration) {}

// LogBeeper writes each tone to a logger instead of playing it
type LogBeeper struct {
	logger *log.Logger
}

// NewLogBeeper creates a LogBeeper
func NewLogBeeper(logger *log.Logger) *LogBeeper {
	if logger == nil {
		panic("LogBeeper: logger cannot be nil")
	}
	return &LogBeeper{logger: logger}
}

// Beep logs the tone
func (b *LogBeeper) Beep(freqHz int, d time.Duration) {
	b.logger.Printf("Beeper: %d Hz for %v", freqHz, d)
}

// Warn plays the short triple warning tone
func Warn(b Beeper) {
	for i := 0; i < WarnRepeat; i++ {
		b.Beep(WarnToneHz, WarnToneTime)
	}
}
