package status

import (
	"fmt"
	"io"
	"sync"
)

// ConsoleView implements ViewImpl as a single status line rewritten in place
// with a carriage return. Logs go elsewhere, so it has no log pane.
type ConsoleView struct {
	mu       sync.Mutex
	out      io.Writer
	lastLine string

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewConsoleView creates a ConsoleView writing to out
func NewConsoleView(out io.Writer) *ConsoleView {
	return &ConsoleView{out: out, stopChan: make(chan struct{})}
}

// Initialize does nothing
func (c *ConsoleView) Initialize(*Controller) {}

// SetupKeyboardHandlers does nothing, the console view is stopped by signal
func (c *ConsoleView) SetupKeyboardHandlers(*Controller) {}

// Run blocks until Stop
func (c *ConsoleView) Run() error {
	<-c.stopChan
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastLine != "" {
		fmt.Fprintln(c.out)
	}
	return nil
}

// Stop ends Run. Safe to call multiple times
func (c *ConsoleView) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// Draw does nothing, every update is written immediately
func (c *ConsoleView) Draw() error { return nil }

// GetLogViewHeight returns 0
func (c *ConsoleView) GetLogViewHeight() int { return 0 }

// ClearLogView does nothing
func (c *ConsoleView) ClearLogView() {}

// WriteLogLine does nothing
func (c *ConsoleView) WriteLogLine(string) error { return nil }

// UpdateSnapshot rewrites the status line. A line with actions is kept and
// the next status starts on a fresh line.
func (c *ConsoleView) UpdateSnapshot(snap Snapshot) {
	line := StatusLine(snap.Status)

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r%s ", line)
	if len(snap.Status.Actions) > 0 {
		fmt.Fprintln(c.out)
	}
	c.lastLine = line
}
