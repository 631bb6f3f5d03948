package automation

import (
	"context"
	"log"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// Log only writes each command to a logger
type Log struct {
	logger *log.Logger
}

// NewLog creates a Log executor
func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		panic("Log: logger cannot be nil")
	}
	return &Log{logger: logger}
}

// Execute logs a. Signals are ignored.
func (l *Log) Execute(_ context.Context, a autoworkout.Action) error {
	if a.Kind.IsSignal() {
		return nil
	}
	l.logger.Printf("Automation: %s at %d m", a, a.DistanceM)
	return nil
}
