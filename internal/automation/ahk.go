package automation

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/lowaak/auto-workout/internal/alert"
	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// DefaultScript is the AutoHotkey script driving the Zwift window
const DefaultScript = "workout.ahk"

// DefaultCommand returns the launcher for the AutoHotkey script. Outside
// Windows the command line is only echoed.
func DefaultCommand() string {
	if runtime.GOOS == "windows" {
		return "ahk.bat"
	}
	return "echo ahk.bat"
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// AHK runs one AutoHotkey invocation per action, bracketed by a high tone
// before and a low tone after.
type AHK struct {
	command []string
	script  string
	beeper  alert.Beeper
	logger  *log.Logger
	run     commandRunner
}

// NewAHK creates an AHK executor. command is split on whitespace.
func NewAHK(command, script string, beeper alert.Beeper, logger *log.Logger) (*AHK, error) {
	if logger == nil {
		panic("AHK: logger cannot be nil")
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("ahk command is empty")
	}
	if script == "" {
		script = DefaultScript
	}
	if beeper == nil {
		beeper = alert.NopBeeper{}
	}
	return &AHK{command: fields, script: script, beeper: beeper, logger: logger, run: runCommand}, nil
}

// ScriptArgs returns the script arguments for a, or nil when a has no
// AutoHotkey command.
func ScriptArgs(a autoworkout.Action) []string {
	switch a.Kind {
	case autoworkout.ActionStart:
		return []string{"start", strconv.Itoa(a.WorkoutIndex + 1)}
	case autoworkout.ActionCancel:
		return []string{"cancel"}
	case autoworkout.ActionClose:
		return []string{"close"}
	case autoworkout.ActionUTurn:
		return []string{"uturn"}
	case autoworkout.ActionUsePowerup:
		return []string{"spacebar"}
	default:
		return nil
	}
}

// Execute runs the script for a. Signals are ignored.
func (h *AHK) Execute(ctx context.Context, a autoworkout.Action) error {
	scriptArgs := ScriptArgs(a)
	if scriptArgs == nil {
		return nil
	}

	args := make([]string, 0, len(h.command)+len(scriptArgs))
	args = append(args, h.command[1:]...)
	args = append(args, h.script)
	args = append(args, scriptArgs...)

	h.beeper.Beep(alert.CommandToneHz, alert.CommandToneTime)
	out, err := h.run(ctx, h.command[0], args...)
	h.beeper.Beep(alert.CommandDoneHz, alert.CommandToneTime)

	if out = bytes.TrimSpace(out); len(out) > 0 {
		h.logger.Printf("AHK: %s", out)
	}
	if err != nil {
		return fmt.Errorf("ahk %s: %w", strings.Join(scriptArgs, " "), err)
	}
	return nil
}
