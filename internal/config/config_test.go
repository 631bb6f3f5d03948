package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/auto-workout/internal/feed"
	"github.com/lowaak/auto-workout/internal/workout"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.WattW)
	assert.False(t, cfg.UTurn)
	assert.Equal(t, 0, cfg.ClimbDistanceM())
	assert.Equal(t, workout.DefaultPattern, cfg.Workouts)
	assert.Equal(t, feed.DefaultSauceURL, cfg.URL)
	assert.Equal(t, feed.DefaultSimSpeedKph, cfg.SimSpeedKph)
	assert.Equal(t, "ahk", cfg.Dispatcher)
	assert.Equal(t, "curses", cfg.UI)
	assert.Equal(t, "parquet", cfg.RecordFormat)
	assert.Equal(t, feed.DefaultSimPowerW, cfg.SimPowerW())
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"--watt", "250", "--uturn", "--climb", "2.5", "--leadin", "0.4",
		"--sim", "--simspeed", "30", "--sim-tick", "1s", "--dispatcher", "MQTT",
	})
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.WattW)
	assert.Equal(t, 250, cfg.SimPowerW())
	assert.True(t, cfg.UTurn)
	assert.Equal(t, 2500, cfg.ClimbDistanceM())
	assert.Equal(t, 400, cfg.LeadInM())
	assert.True(t, cfg.Sim)
	assert.Equal(t, 30.0, cfg.SimSpeedKph)
	assert.Equal(t, time.Second, cfg.SimTick)
	assert.Equal(t, "mqtt", cfg.Dispatcher)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AUTOWORKOUT_SIM_PORT", "8099")
	t.Setenv("AUTOWORKOUT_WATT", "180")

	cfg, err := Load([]string{"--watt", "200"})
	require.NoError(t, err)
	assert.Equal(t, 8099, cfg.SimPort)
	assert.Equal(t, 200, cfg.WattW, "flag wins over env")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-workout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("climb: 1.2\nui: console\nredis-addr: redis:6379\n"), 0o644))
	t.Setenv("AUTOWORKOUT_UI", "curses")

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 1200, cfg.ClimbDistanceM())
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "curses", cfg.UI, "env wins over file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	for _, args := range [][]string{
		{"--climb", "50"},
		{"--climb", "-1"},
		{"--leadin", "15"},
		{"--watt", "-5"},
		{"--simspeed", "0"},
		{"--sim-port", "70000"},
		{"--dispatcher", "carrier-pigeon"},
		{"--ui", "gtk"},
		{"--beeper", "piano"},
		{"--record-format", "csv"},
	} {
		t.Run(args[0]+"="+args[1], func(t *testing.T) {
			_, err := Load(args)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_Help(t *testing.T) {
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, Usage(), "--climb")
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"--nope"})
	assert.Error(t, err)
}
