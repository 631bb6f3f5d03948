// Package config builds the application configuration from flags, the
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/auto-workout/internal/alert"
	"github.com/lowaak/auto-workout/internal/automation"
	"github.com/lowaak/auto-workout/internal/feed"
	"github.com/lowaak/auto-workout/internal/status"
	"github.com/lowaak/auto-workout/internal/workout"
)

// EnvPrefix is prepended to every environment variable, so --sim-port is
// read from AUTOWORKOUT_SIM_PORT
const EnvPrefix = "AUTOWORKOUT"

const (
	maxClimbKm  = 50
	maxLeadInKm = 15

	defaultGPIOLine     = 17
	defaultLogFile      = "auto-workout.log"
	defaultLogMaxSizeMB = 10
	defaultLogBackups   = 3
	defaultLogMaxAge    = 28
)

// ErrInvalid is returned for values outside their allowed range
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of one run
type Config struct {
	ConfigFile string

	WattW      int
	UTurn      bool
	LeadInKm   float64
	ClimbKm    float64
	Workouts   string
	Dispatcher string

	URL            string
	ReconnectDelay time.Duration

	Sim         bool
	SimSpeedKph float64
	SimTick     time.Duration
	SimPort     int

	AHKCommand string
	AHKScript  string
	AHKTimeout time.Duration

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	RedisAddr    string
	RedisChannel string

	UI       string
	Beeper   string
	GPIOChip string
	GPIOLine int

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	Record       string
	RecordFormat string

	StateFile string
}

var (
	dispatchers   = []string{"ahk", "mqtt", "redis", "log"}
	uis           = []string{"curses", "console"}
	beepers       = []string{"none", "log", "gpio"}
	recordFormats = []string{"parquet", "fit"}
)

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("config", "", "Config file (yaml, toml, json...)")

	fs.Int("watt", 0, "Fixed target power in watts, 0 follows the rider's average power")
	fs.Bool("uturn", false, "Make a U-turn every kilometer and use the powerup with each workout")
	fs.Float64("leadin", 0, "Distance before the climb starts, in km")
	fs.Float64("climb", 0, "Climb length in km, 0 rides for kilometer bonuses")
	fs.String("workouts", workout.DefaultPattern, "Glob of ZWO workout files")
	fs.String("dispatcher", "ahk", "Where commands go (ahk, mqtt, redis, log)")

	fs.String("url", feed.DefaultSauceURL, "Sauce4Zwift base URL")
	fs.Duration("reconnect-delay", feed.DefaultReconnectDelay, "Delay before reconnecting to Sauce4Zwift")

	fs.Bool("sim", false, "Use the built-in ride simulator instead of Sauce4Zwift")
	fs.Float64("simspeed", feed.DefaultSimSpeedKph, "Simulator speed in km/h")
	fs.Duration("sim-tick", feed.DefaultSimTick, "Real time per simulated second")
	fs.Int("sim-port", 0, "Simulator control API port, 0 disables it")

	fs.String("ahk-command", automation.DefaultCommand(), "AutoHotkey launcher")
	fs.String("ahk-script", automation.DefaultScript, "AutoHotkey workout script")
	fs.Duration("ahk-timeout", automation.DefaultActionTimeout, "Timeout for a single command")

	fs.String("mqtt-broker", automation.DefaultMQTTBroker, "MQTT broker URL")
	fs.String("mqtt-topic", automation.DefaultMQTTTopic, "MQTT topic for commands")
	fs.String("mqtt-client-id", automation.DefaultMQTTClientID, "MQTT client id")

	fs.String("redis-addr", automation.DefaultRedisAddr, "Redis address")
	fs.String("redis-channel", automation.DefaultRedisChannel, "Redis channel and hash key for commands")

	fs.String("ui", "curses", "User interface (curses, console)")
	fs.String("beeper", "log", "Warning beeper (none, log, gpio)")
	fs.String("gpio-chip", alert.DefaultChip, "GPIO chip of the buzzer")
	fs.Int("gpio-line", defaultGPIOLine, "GPIO line offset of the buzzer")

	fs.String("log-file", defaultLogFile, "Log file")
	fs.Int("log-max-size", defaultLogMaxSizeMB, "Log file size in MB before rotation")
	fs.Int("log-max-backups", defaultLogBackups, "Rotated log files to keep")
	fs.Int("log-max-age", defaultLogMaxAge, "Days to keep rotated log files")

	fs.String("record", "", "Write the session to this file on exit")
	fs.String("record-format", "parquet", "Recording format (parquet, fit)")
	fs.String("state-file", status.DefaultTotalsPath(), "File keeping command totals across sessions, empty disables it")

	return fs
}

// Load parses args (without the program name) and layers them over the
// environment, the config file and the defaults. pflag.ErrHelp is returned
// as is when -h or --help is given.
func Load(args []string) (*Config, error) {
	fs := newFlagSet("auto-workout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		ConfigFile: v.GetString("config"),

		WattW:      v.GetInt("watt"),
		UTurn:      v.GetBool("uturn"),
		LeadInKm:   v.GetFloat64("leadin"),
		ClimbKm:    v.GetFloat64("climb"),
		Workouts:   v.GetString("workouts"),
		Dispatcher: strings.ToLower(v.GetString("dispatcher")),

		URL:            v.GetString("url"),
		ReconnectDelay: v.GetDuration("reconnect-delay"),

		Sim:         v.GetBool("sim"),
		SimSpeedKph: v.GetFloat64("simspeed"),
		SimTick:     v.GetDuration("sim-tick"),
		SimPort:     v.GetInt("sim-port"),

		AHKCommand: v.GetString("ahk-command"),
		AHKScript:  v.GetString("ahk-script"),
		AHKTimeout: v.GetDuration("ahk-timeout"),

		MQTTBroker:   v.GetString("mqtt-broker"),
		MQTTTopic:    v.GetString("mqtt-topic"),
		MQTTClientID: v.GetString("mqtt-client-id"),

		RedisAddr:    v.GetString("redis-addr"),
		RedisChannel: v.GetString("redis-channel"),

		UI:       strings.ToLower(v.GetString("ui")),
		Beeper:   strings.ToLower(v.GetString("beeper")),
		GPIOChip: v.GetString("gpio-chip"),
		GPIOLine: v.GetInt("gpio-line"),

		LogFile:       v.GetString("log-file"),
		LogMaxSizeMB:  v.GetInt("log-max-size"),
		LogMaxBackups: v.GetInt("log-max-backups"),
		LogMaxAgeDays: v.GetInt("log-max-age"),

		Record:       v.GetString("record"),
		RecordFormat: strings.ToLower(v.GetString("record-format")),

		StateFile: v.GetString("state-file"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Usage returns the flag help text
func Usage() string {
	return newFlagSet("auto-workout").FlagUsages()
}

// Validate checks ranges and enum values
func (c *Config) Validate() error {
	switch {
	case c.WattW < 0:
		return fmt.Errorf("%w: watt must not be negative, got %d", ErrInvalid, c.WattW)
	case c.ClimbKm < 0 || c.ClimbKm >= maxClimbKm:
		return fmt.Errorf("%w: climb must be in [0, %d) km, got %v", ErrInvalid, maxClimbKm, c.ClimbKm)
	case c.LeadInKm < 0 || c.LeadInKm >= maxLeadInKm:
		return fmt.Errorf("%w: leadin must be in [0, %d) km, got %v", ErrInvalid, maxLeadInKm, c.LeadInKm)
	case c.SimSpeedKph <= 0:
		return fmt.Errorf("%w: simspeed must be positive, got %v", ErrInvalid, c.SimSpeedKph)
	case c.SimTick < 0:
		return fmt.Errorf("%w: sim-tick must not be negative, got %v", ErrInvalid, c.SimTick)
	case c.SimPort < 0 || c.SimPort > math.MaxUint16:
		return fmt.Errorf("%w: sim-port out of range, got %d", ErrInvalid, c.SimPort)
	case c.GPIOLine < 0:
		return fmt.Errorf("%w: gpio-line must not be negative, got %d", ErrInvalid, c.GPIOLine)
	}

	for _, e := range []struct {
		name, value string
		allowed     []string
	}{
		{"dispatcher", c.Dispatcher, dispatchers},
		{"ui", c.UI, uis},
		{"beeper", c.Beeper, beepers},
		{"record-format", c.RecordFormat, recordFormats},
	} {
		if !oneOf(e.value, e.allowed) {
			return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalid, e.name, strings.Join(e.allowed, "|"), e.value)
		}
	}
	return nil
}

// ClimbDistanceM returns the climb length in meters
func (c *Config) ClimbDistanceM() int {
	return kmToM(c.ClimbKm)
}

// LeadInM returns the lead-in in meters
func (c *Config) LeadInM() int {
	return kmToM(c.LeadInKm)
}

// SimPowerW returns the simulator power, the fixed watt if one is set
func (c *Config) SimPowerW() int {
	if c.WattW > 0 {
		return c.WattW
	}
	return feed.DefaultSimPowerW
}

func kmToM(km float64) int {
	return int(math.Round(km * 1000))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
