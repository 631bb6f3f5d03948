package status

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/auto-workout/internal/go_func_utils"
)

// BaseView contains the logic shared by all view implementations: it feeds
// model changes to the implementation and stops it on close.
type BaseView struct {
	impl       ViewImpl
	model      *Model
	controller *Controller
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *log.Logger
}

// NewBaseView initializes impl and starts following model
func NewBaseView(impl ViewImpl, model *Model, controller *Controller, logger *log.Logger) *BaseView {
	if logger == nil {
		panic("BaseView: logger cannot be nil")
	}
	if impl == nil {
		panic("BaseView: impl cannot be nil")
	}
	if model == nil {
		panic("BaseView: model cannot be nil")
	}
	if controller == nil {
		panic("BaseView: controller cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseView{
		impl:       impl,
		model:      model,
		controller: controller,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}

	impl.Initialize(controller)
	impl.SetupKeyboardHandlers(controller)

	base.wg.Add(1)
	go_func_utils.SafeGo(logger, "BaseView.monitorLogResize", base.monitorLogResize)
	base.updateLogDisplay()

	base.setupEventListeners()
	return base
}

func (base *BaseView) setupEventListeners() {
	logChan := make(chan string, 1)
	logUnregister := base.model.ListenToLog(logChan)
	base.wg.Add(1)
	go_func_utils.SafeGo(base.logger, "BaseView.log", func() {
		defer base.wg.Done()
		defer logUnregister()
		for {
			select {
			case <-base.ctx.Done():
				return
			case <-logChan:
				base.updateLogDisplay()
				base.draw()
			}
		}
	})

	snapChan := make(chan Snapshot, 1)
	snapUnregister := base.model.ListenToSnapshot(snapChan)
	base.wg.Add(1)
	go_func_utils.SafeGo(base.logger, "BaseView.snapshot", func() {
		defer base.wg.Done()
		defer snapUnregister()
		for {
			select {
			case <-base.ctx.Done():
				return
			case snap := <-snapChan:
				base.impl.UpdateSnapshot(snap)
				base.draw()
			}
		}
	})

	closeChan := make(chan struct{}, 1)
	closeUnregister := base.model.ListenToCloseApplication(closeChan)
	base.wg.Add(1)
	go_func_utils.SafeGo(base.logger, "BaseView.close", func() {
		defer base.wg.Done()
		defer closeUnregister()
		select {
		case <-base.ctx.Done():
		case <-closeChan:
			base.impl.Stop()
		}
	})
}

func (base *BaseView) draw() {
	if err := base.impl.Draw(); err != nil {
		base.logger.Printf("BaseView: Error drawing: %v", err)
	}
}

func (base *BaseView) updateLogDisplay() {
	height := base.impl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	base.impl.ClearLogView()
	for _, line := range base.model.GetLogTail(height) {
		if err := base.impl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseView) monitorLogResize() {
	defer base.wg.Done()
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.ctx.Done():
			return
		case <-ticker.C:
			height := base.impl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Run starts the UI and blocks until it exits
func (base *BaseView) Run() error {
	return base.impl.Run()
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseView) Shutdown() {
	base.logger.Println("BaseView: Shutting down")
	base.cancel()
	base.wg.Wait()
	base.logger.Println("BaseView: Shutdown complete")
}
