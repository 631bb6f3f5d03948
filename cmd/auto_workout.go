package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"

	"github.com/lowaak/auto-workout/internal/alert"
	"github.com/lowaak/auto-workout/internal/automation"
	"github.com/lowaak/auto-workout/internal/config"
	"github.com/lowaak/auto-workout/internal/feed"
	"github.com/lowaak/auto-workout/internal/go_func_utils"
	"github.com/lowaak/auto-workout/internal/logging"
	"github.com/lowaak/auto-workout/internal/recorder"
	"github.com/lowaak/auto-workout/internal/session"
	"github.com/lowaak/auto-workout/internal/status"
	"github.com/lowaak/auto-workout/internal/workout"
)

const uiLogBuffer = 256

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "auto-workout: %v\n", err)
		return 2
	}

	var extra []io.Writer
	var uiLog *logging.ChannelWriter
	if cfg.UI == "curses" {
		uiLog = logging.NewChannelWriter(uiLogBuffer)
		extra = append(extra, uiLog)
	} else {
		extra = append(extra, os.Stderr)
	}
	appLog := logging.New(logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}, extra...)
	defer appLog.Close()
	logger := appLog.Logger

	logger.Printf("Main: Starting auto-workout")
	if cfg.ConfigFile != "" {
		logger.Printf("Main: Using config file %s", cfg.ConfigFile)
	}

	defs, err := workout.LoadDefinitions(cfg.Workouts, logger)
	if err != nil {
		logger.Printf("Main: Cannot load workouts: %v", err)
		return 1
	}

	beeper, closeBeeper, err := newBeeper(cfg, logger)
	if err != nil {
		logger.Printf("Main: Cannot set up beeper: %v", err)
		return 1
	}
	defer closeBeeper()

	executor, closeExecutor, err := newExecutor(cfg, beeper, logger)
	if err != nil {
		logger.Printf("Main: Cannot set up %s dispatcher: %v", cfg.Dispatcher, err)
		return 1
	}
	defer closeExecutor()

	async := automation.NewAsync(executor, automation.DefaultQueueSize, cfg.AHKTimeout, logger)
	alerter := alert.NewAlerter(beeper, logger)
	fanout := automation.NewFanout()
	fanout.Attach(async)
	fanout.Listen(alerter.OnAction)

	runner := session.NewRunner(session.Options{
		FixedWattW:     cfg.WattW,
		UTurnMode:      cfg.UTurn,
		ClimbDistanceM: cfg.ClimbDistanceM(),
		LeadInM:        cfg.LeadInM(),
		Definitions:    defs,
	}, fanout, logger)

	var rec *recorder.Recorder
	if cfg.Record != "" {
		format, _ := recorder.ParseFormat(cfg.RecordFormat)
		rec, err = recorder.New(cfg.Record, format, time.Now(), logger)
		if err != nil {
			logger.Printf("Main: Cannot record session: %v", err)
			return 1
		}
		runner.OnTick(rec.Record)
	}

	var uiLines <-chan string
	if uiLog != nil {
		uiLines = uiLog.Lines()
	}
	model := status.NewModel(logger, uiLines)
	var totals *status.TotalsStore
	if cfg.StateFile != "" {
		totals = status.NewTotalsStore(cfg.StateFile, logger)
		t := totals.Totals()
		logger.Printf("Main: %d previous sessions, %s", t.Sessions, status.CountersLine(t.Counters))
	}
	model.Bind(runner)
	controller := status.NewController(model, runner, logger)

	var impl status.ViewImpl
	if cfg.UI == "curses" {
		impl = status.NewCursesView(logger, tview.NewApplication())
	} else {
		impl = status.NewConsoleView(os.Stdout)
	}
	view := status.NewBaseView(impl, model, controller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sourceWG sync.WaitGroup
	source := newSource(cfg, logger)
	sourceWG.Add(1)
	go_func_utils.SafeGo(logger, "Main.source", func() {
		defer sourceWG.Done()
		err := source.Run(ctx, runner.Events())
		if err != nil && ctx.Err() == nil {
			logger.Printf("Main: Telemetry source stopped: %v", err)
			model.RequestCloseApplication()
		}
	})
	go_func_utils.SafeGo(logger, "Main.signal", func() {
		<-ctx.Done()
		model.RequestCloseApplication()
	})

	exitCode := 0
	if err := view.Run(); err != nil {
		logger.Printf("Main: UI error: %v", err)
		exitCode = 1
	}

	logger.Printf("Main: Shutting down")
	stop()
	sourceWG.Wait()
	view.Shutdown()
	model.Shutdown()
	runner.Shutdown()
	async.Shutdown()
	alerter.Shutdown()
	if rec != nil {
		if err := rec.Close(); err != nil {
			logger.Printf("Main: %v", err)
			exitCode = 1
		}
	}
	if totals != nil {
		if err := totals.AddSession(model.GetSnapshot().Counters); err != nil {
			logger.Printf("Main: Cannot save totals: %v", err)
		}
	}
	if n := async.Dropped(); n > 0 {
		logger.Printf("Main: %d commands were dropped", n)
	}
	logger.Printf("Main: Bye")
	return exitCode
}

func newBeeper(cfg *config.Config, logger *log.Logger) (alert.Beeper, func(), error) {
	switch cfg.Beeper {
	case "none":
		return alert.NopBeeper{}, func() {}, nil
	case "gpio":
		b, err := alert.NewGPIOBeeper(cfg.GPIOChip, cfg.GPIOLine, logger, false)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				logger.Printf("Main: Closing GPIO: %v", err)
			}
		}, nil
	default:
		return alert.NewLogBeeper(logger), func() {}, nil
	}
}

func newExecutor(cfg *config.Config, beeper alert.Beeper, logger *log.Logger) (automation.Executor, func(), error) {
	switch cfg.Dispatcher {
	case "mqtt":
		m, err := automation.NewMQTT(cfg.MQTTBroker, cfg.MQTTTopic, cfg.MQTTClientID, logger)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	case "redis":
		r := automation.NewRedis(cfg.RedisAddr, cfg.RedisChannel, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			logger.Printf("Main: Warning: redis at %s is not reachable yet: %v", cfg.RedisAddr, err)
		}
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Printf("Main: Closing redis: %v", err)
			}
		}, nil
	case "log":
		return automation.NewLog(logger), func() {}, nil
	default:
		h, err := automation.NewAHK(cfg.AHKCommand, cfg.AHKScript, beeper, logger)
		if err != nil {
			return nil, nil, err
		}
		return h, func() {}, nil
	}
}

func newSource(cfg *config.Config, logger *log.Logger) feed.Source {
	if cfg.Sim {
		return feed.NewSimulator(feed.SimulatorConfig{
			FTP:      feed.DefaultSimFTP,
			PowerW:   float64(cfg.SimPowerW()),
			SpeedKph: cfg.SimSpeedKph,
			Tick:     cfg.SimTick,
			Port:     cfg.SimPort,
		}, logger)
	}
	return feed.NewSauce(cfg.URL, cfg.ReconnectDelay, logger)
}
