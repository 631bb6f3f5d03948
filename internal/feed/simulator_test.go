package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_Defaults(t *testing.T) {
	s := NewSimulator(SimulatorConfig{}, log.New(&safeBuffer{}, "", 0))
	st := s.State()
	assert.Equal(t, float64(DefaultSimFTP), st.FTP)
	assert.Equal(t, float64(DefaultSimPowerW), st.PowerW)
	assert.Equal(t, DefaultSimSpeedKph, st.SpeedKph)
	assert.Equal(t, DefaultSimTick, s.tick)
}

func TestSimulator_Run(t *testing.T) {
	s := NewSimulator(SimulatorConfig{SpeedKph: 36, PowerW: 150, Tick: time.Millisecond}, log.New(&safeBuffer{}, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, out) }()

	var got []Event
	for i := 0; i < 3; i++ {
		select {
		case ev := <-out:
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatal("no event")
		}
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []Event{
		{FTP: 200, DistanceM: 0, ElapsedTimeS: 0, PowerW: 150},
		{FTP: 200, DistanceM: 10, ElapsedTimeS: 1, PowerW: 150},
		{FTP: 200, DistanceM: 20, ElapsedTimeS: 2, PowerW: 150},
	}, got)
}

func TestSimulator_ControlAPI(t *testing.T) {
	s := NewSimulator(SimulatorConfig{}, log.New(&safeBuffer{}, "", 0))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/set?speedKph=30&power=250", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var st SimulatorState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 30.0, st.SpeedKph)
	assert.Equal(t, 250.0, st.PowerW)

	resp2, err := http.Post(srv.URL+"/api/set?power=abc", "", nil)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/api/set?power=100")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp3.StatusCode)
	assert.Equal(t, 250.0, s.State().PowerW)
}

func TestSimulator_SetKeepsUnsetValues(t *testing.T) {
	s := NewSimulator(SimulatorConfig{SpeedKph: 25, PowerW: 180}, log.New(&safeBuffer{}, "", 0))
	s.Set(0, 200)
	assert.Equal(t, 25.0, s.State().SpeedKph)
	assert.Equal(t, 200.0, s.State().PowerW)
}
