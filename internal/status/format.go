package status

import (
	"fmt"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

const spinner = `|/-\`

// Spinner returns the progress glyph for a simulator time
func Spinner(timeS int) string {
	i := timeS % len(spinner)
	if i < 0 {
		i += len(spinner)
	}
	return spinner[i : i+1]
}

// StatusLine renders the one-line status: the header followed by the
// running workout's info, or a spinner when idle.
func StatusLine(st autoworkout.Status) string {
	info := st.WorkoutInfo()
	if info == "" {
		info = Spinner(st.TimeS)
	}
	return st.Header() + " " + info
}

// CountersLine renders the session counters
func CountersLine(c Counters) string {
	return fmt.Sprintf("started %d  closed %d  cancelled %d  u-turns %d", c.Starts, c.Closes, c.Cancels, c.UTurns)
}
