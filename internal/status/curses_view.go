package status

import (
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// CursesView implements ViewImpl with a tview dashboard
type CursesView struct {
	logger *log.Logger
	app    *tview.Application

	mainFlex     *tview.Flex
	statusLine   *tview.TextView
	ridePanel    *tview.TextView
	workoutPanel *tview.TextView
	sessionPanel *tview.TextView
	logView      *tview.TextView
}

// NewCursesView creates a CursesView on app
func NewCursesView(logger *log.Logger, app *tview.Application) *CursesView {
	if logger == nil {
		panic("CursesView: logger cannot be nil")
	}
	return &CursesView{logger: logger, app: app}
}

// Initialize sets up the tview widgets
func (ui *CursesView) Initialize(controller *Controller) {
	// Don't use SetChangedFunc with app.Draw(), it can hang during shutdown
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.statusLine = tview.NewTextView().SetDynamicColors(true)
	ui.statusLine.SetBorder(true).SetTitle(" Zwift Auto Workout ")

	ui.ridePanel = newPanel(" Ride ")
	ui.workoutPanel = newPanel(" Workout ")
	ui.sessionPanel = newPanel(" Session ")

	help := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]x[white] Cancel workout  |  [yellow]q[white]/[yellow]Esc[white] Quit")

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.statusLine, 3, 0, false).
		AddItem(ui.ridePanel, 0, 2, false).
		AddItem(ui.workoutPanel, 0, 2, false).
		AddItem(ui.sessionPanel, 0, 1, false).
		AddItem(help, 1, 0, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(ui.logView, 0, 1, false)

	ui.UpdateSnapshot(Snapshot{})
}

func newPanel(title string) *tview.TextView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorder(true).SetTitle(title)
	return tv
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesView) SetupKeyboardHandlers(controller *Controller) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			controller.OnQuitKey()
			return nil
		}
		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q', 'Q':
				controller.OnQuitKey()
				return nil
			case 'x', 'X':
				controller.OnCancelKey()
				return nil
			}
		}
		return event
	})
}

// UpdateSnapshot refreshes all panels
func (ui *CursesView) UpdateSnapshot(snap Snapshot) {
	st := snap.Status
	ui.statusLine.SetText(" " + StatusLine(st))
	ui.ridePanel.SetText(formatRide(st))
	ui.workoutPanel.SetText(formatWorkout(st))
	ui.sessionPanel.SetText("\n  " + CountersLine(snap.Counters))
}

func formatRide(st autoworkout.Status) string {
	text := "\n"
	text += fmt.Sprintf("  [gray]Time:[white]      [yellow]%s[white]\n", formatClock(st.TimeS))
	text += fmt.Sprintf("  [gray]Distance:[white]  [yellow]%.3f[white] km\n", float64(st.DistanceM)/1000)
	text += fmt.Sprintf("  [gray]Power:[white]     [yellow]%d[white] W\n", st.PowerW)
	if !st.Ready {
		text += "\n  [gray]Warming up...[white]\n"
		return text
	}
	text += fmt.Sprintf("  [gray]Avg power:[white] [yellow]%d[white] W\n", st.AvgPowerW)
	text += fmt.Sprintf("  [gray]Speed:[white]     [yellow]%.1f[white] km/h  (%.1f mph)\n", st.SpeedKph(), st.SpeedMph())
	return text
}

func formatWorkout(st autoworkout.Status) string {
	if st.Phase != autoworkout.PhaseActive {
		return "\n  [gray]No workout running[white]\n"
	}
	text := "\n"
	text += fmt.Sprintf("  [yellow]%s[white]\n\n", st.WorkoutName)
	text += fmt.Sprintf("  [gray]Remaining:[white] %s\n", formatClock(st.SecsLeft))
	if st.HasEstEnd {
		text += fmt.Sprintf("  [gray]Est. end:[white]  %.3f km\n", float64(st.EstEndM)/1000)
	}
	return text
}

// formatClock renders seconds as H:MM:SS
func formatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesView) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesView) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesView) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw redraws the application
func (ui *CursesView) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesView) Run() error {
	ui.app.SetRoot(ui.mainFlex, true)
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesView) Stop() {
	ui.app.Stop()
}
