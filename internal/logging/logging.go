// Package logging builds the application logger: a rotating log file plus,
// depending on the UI, the console or the dashboard's log pane.
package logging

import (
	"io"
	"log"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure the rotating log file. An empty File disables it.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger is the application logger and the file behind it
type Logger struct {
	*log.Logger
	file *lumberjack.Logger
}

// New creates a Logger writing to the log file and to every extra writer
func New(opts Options, extra ...io.Writer) *Logger {
	writers := make([]io.Writer, 0, len(extra)+1)
	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, file)
	}
	for _, w := range extra {
		if w != nil {
			writers = append(writers, w)
		}
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	return &Logger{
		Logger: log.New(out, "", log.LstdFlags|log.Lmicroseconds),
		file:   file,
	}
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ChannelWriter turns each Write into one line on a channel, for the UI log
// pane. Writes never block: lines are dropped while the channel is full.
type ChannelWriter struct {
	ch      chan string
	dropped atomic.Uint64
}

// NewChannelWriter creates a ChannelWriter buffering up to size lines
func NewChannelWriter(size int) *ChannelWriter {
	return &ChannelWriter{ch: make(chan string, size)}
}

// Write sends p as one line. It always reports success so a slow UI never
// fails the other log writers.
func (w *ChannelWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Lines returns the channel the lines are delivered on
func (w *ChannelWriter) Lines() <-chan string {
	return w.ch
}

// Dropped returns the number of lines lost to a full channel
func (w *ChannelWriter) Dropped() uint64 {
	return w.dropped.Load()
}
