package alert

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used when none is configured
const DefaultChip = "gpiochip0"

// buzzerLine is the subset of *gpiocdev.Line used by GPIOBeeper
type buzzerLine interface {
	SetValue(value int) error
	Close() error
}

// GPIOBeeper drives an active buzzer on one GPIO output line. An active
// buzzer has a fixed pitch, so the requested frequency is ignored.
type GPIOBeeper struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	line   buzzerLine
	logger *log.Logger
	dryRun bool
	sleep  func(time.Duration)
}

// NewGPIOBeeper requests offset on chip as an output, driven low. With dryRun
// no hardware is touched and each tone is only logged.
func NewGPIOBeeper(chip string, offset int, logger *log.Logger, dryRun bool) (*GPIOBeeper, error) {
	if logger == nil {
		panic("GPIOBeeper: logger cannot be nil")
	}
	b := &GPIOBeeper{logger: logger, dryRun: dryRun, sleep: time.Sleep}
	if dryRun {
		return b, nil
	}

	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %s: %w", chip, err)
	}
	line, err := c.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to request buzzer GPIO %s:%d: %w", chip, offset, err)
	}
	b.chip = c
	b.line = line

	b.logger.Printf("GPIOBeeper: buzzer on %s line %d", chip, offset)
	return b, nil
}

// Beep drives the line high for d
func (b *GPIOBeeper) Beep(freqHz int, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dryRun {
		b.logger.Printf("DRY RUN: Would beep %d Hz for %v", freqHz, d)
		return
	}
	if b.line == nil {
		return
	}

	if err := b.line.SetValue(1); err != nil {
		b.logger.Printf("GPIOBeeper: failed to set buzzer on: %v", err)
		return
	}
	b.sleep(d)
	if err := b.line.SetValue(0); err != nil {
		b.logger.Printf("GPIOBeeper: failed to set buzzer off: %v", err)
	}
}

// Close releases the line and chip
func (b *GPIOBeeper) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var lastErr error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			b.logger.Printf("GPIOBeeper: failed to close line: %v", err)
			lastErr = err
		}
		b.line = nil
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			b.logger.Printf("GPIOBeeper: failed to close chip: %v", err)
			lastErr = err
		}
		b.chip = nil
	}
	return lastErr
}
