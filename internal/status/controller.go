package status

import "log"

// WorkoutCanceller cancels the running workout on request
type WorkoutCanceller interface {
	CancelWorkout()
}

// Controller turns key presses into model and session requests
type Controller struct {
	model     *Model
	canceller WorkoutCanceller
	logger    *log.Logger
}

// NewController creates a Controller
func NewController(model *Model, canceller WorkoutCanceller, logger *log.Logger) *Controller {
	if model == nil {
		panic("Controller: model cannot be nil")
	}
	if canceller == nil {
		panic("Controller: canceller cannot be nil")
	}
	if logger == nil {
		panic("Controller: logger cannot be nil")
	}
	return &Controller{model: model, canceller: canceller, logger: logger}
}

// OnQuitKey handles Escape and q
func (c *Controller) OnQuitKey() {
	c.model.RequestCloseApplication()
}

// OnCancelKey force-cancels the running workout
func (c *Controller) OnCancelKey() {
	c.logger.Printf("Controller: Cancel requested")
	c.canceller.CancelWorkout()
}
