package status

// ViewImpl defines the interface for framework-specific UI implementations
type ViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	Initialize(controller *Controller)

	// SetupKeyboardHandlers sets up keyboard event handlers
	SetupKeyboardHandlers(controller *Controller)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// GetLogViewHeight returns the visible height of the log view, 0 when
	// the view has no log pane
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// UpdateSnapshot shows the latest status and counters
	UpdateSnapshot(snap Snapshot)
}
