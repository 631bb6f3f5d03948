package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lowaak/auto-workout/internal/go_func_utils"
)

// Simulator defaults
const (
	DefaultSimFTP      = 200
	DefaultSimPowerW   = 111
	DefaultSimSpeedKph = 20.0
	DefaultSimTick     = 100 * time.Millisecond
)

// SimulatorConfig holds the settings of a Simulator
type SimulatorConfig struct {
	FTP      float64
	PowerW   float64       // 0 selects DefaultSimPowerW
	SpeedKph float64       // 0 selects DefaultSimSpeedKph
	Tick     time.Duration // wall time per simulated second, 0 selects DefaultSimTick
	Port     int           // control server port, 0 disables it
}

// SimulatorState is the simulator's state as served by the control API
type SimulatorState struct {
	FTP       float64 `json:"ftp"`
	PowerW    float64 `json:"power"`
	SpeedKph  float64 `json:"speedKph"`
	DistanceM float64 `json:"distanceM"`
	TimeS     float64 `json:"timeS"`
}

// Simulator rides at a constant speed and power, one event per simulated
// second. Speed and power can be changed while running through the control
// API.
type Simulator struct {
	logger *log.Logger
	tick   time.Duration
	port   int

	mu    sync.RWMutex
	state SimulatorState

	server *http.Server
	wg     sync.WaitGroup
}

// NewSimulator creates a Simulator starting at distance 0 and time 0
func NewSimulator(cfg SimulatorConfig, logger *log.Logger) *Simulator {
	if logger == nil {
		panic("Simulator: logger cannot be nil")
	}
	if cfg.FTP <= 0 {
		cfg.FTP = DefaultSimFTP
	}
	if cfg.PowerW <= 0 {
		cfg.PowerW = DefaultSimPowerW
	}
	if cfg.SpeedKph <= 0 {
		cfg.SpeedKph = DefaultSimSpeedKph
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultSimTick
	}
	return &Simulator{
		logger: logger,
		tick:   cfg.Tick,
		port:   cfg.Port,
		state: SimulatorState{
			FTP:      cfg.FTP,
			PowerW:   cfg.PowerW,
			SpeedKph: cfg.SpeedKph,
		},
	}
}

// State returns the current state
func (s *Simulator) State() SimulatorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set changes speed and power. Values of zero or less are left unchanged.
func (s *Simulator) Set(speedKph, powerW float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if speedKph > 0 {
		s.state.SpeedKph = speedKph
	}
	if powerW > 0 {
		s.state.PowerW = powerW
	}
}

// step returns the event for the current second and advances by one
func (s *Simulator) step() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := Event{
		FTP:          s.state.FTP,
		DistanceM:    s.state.DistanceM,
		ElapsedTimeS: s.state.TimeS,
		PowerW:       s.state.PowerW,
	}
	s.state.TimeS++
	s.state.DistanceM += s.state.SpeedKph * 1000 / 3600
	return ev
}

// Run emits events until ctx is cancelled. The control server, if enabled,
// runs for the same time.
func (s *Simulator) Run(ctx context.Context, out chan<- Event) error {
	s.logger.Printf("Simulator: Starting at %.1fkph %.0fw, ftp %.0f", s.state.SpeedKph, s.state.PowerW, s.state.FTP)
	if s.port > 0 {
		if err := s.startServer(); err != nil {
			return err
		}
		defer s.stopServer()
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case out <- s.step():
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Handler returns the control API
func (s *Simulator) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/api/set", s.handleSetValues)
	return mux
}

func (s *Simulator) startServer() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("simulator control server: %w", err)
	}
	s.server = &http.Server{Handler: s.Handler()}

	s.wg.Add(1)
	go_func_utils.SafeGo(s.logger, "Simulator.server", func() {
		defer s.wg.Done()
		s.logger.Printf("Simulator: Control server on http://localhost:%d", s.port)
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("Simulator: Control server error: %v", err)
		}
	})
	return nil
}

func (s *Simulator) stopServer() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Printf("Simulator: Control server shutdown: %v", err)
	}
	s.wg.Wait()
}

func (s *Simulator) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.State())
}

func (s *Simulator) handleSetValues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parse := func(name string) (float64, bool) {
		v := r.URL.Query().Get(name)
		if v == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			http.Error(w, fmt.Sprintf("invalid %s %q", name, v), http.StatusBadRequest)
			return 0, false
		}
		return f, true
	}
	speed, ok := parse("speedKph")
	if !ok {
		return
	}
	power, ok := parse("power")
	if !ok {
		return
	}

	s.Set(speed, power)
	s.logger.Printf("Simulator: Set speed=%.1fkph power=%.0fw", s.State().SpeedKph, s.State().PowerW)
	w.WriteHeader(http.StatusOK)
}
