package workout

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern is where workout files are looked for unless configured
const DefaultPattern = "workouts/*.zwo"

var (
	// ErrNotBike marks a workout file for another sport
	ErrNotBike = errors.New("not a bike workout")
	// ErrNoIntervals marks a workout file without an IntervalsT block
	ErrNoIntervals = errors.New("no IntervalsT block")
)

// Definition is a workout read from a ZWO file. Its power is relative to
// FTP; Resolve turns it into watts once the rider's FTP is known.
type Definition struct {
	Name       string
	DurationS  int
	OnPowerFTP float64
	Path       string
}

type zwoFile struct {
	Name      string `xml:"name"`
	SportType string `xml:"sportType"`
	Workout   struct {
		Intervals []zwoIntervals `xml:"IntervalsT"`
	} `xml:"workout"`
}

type zwoIntervals struct {
	Repeat      int     `xml:"Repeat,attr"`
	OnDuration  int     `xml:"OnDuration,attr"`
	OffDuration int     `xml:"OffDuration,attr"`
	OnPower     float64 `xml:"OnPower,attr"`
}

// ParseZWO reads one workout file. Only bike workouts built from an
// IntervalsT block are accepted; the first such block defines the workout.
func ParseZWO(r io.Reader) (Definition, error) {
	var f zwoFile
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return Definition{}, fmt.Errorf("decode zwo: %w", err)
	}
	if strings.TrimSpace(f.SportType) != "bike" {
		return Definition{}, fmt.Errorf("%w: sportType %q", ErrNotBike, f.SportType)
	}
	if len(f.Workout.Intervals) == 0 {
		return Definition{}, ErrNoIntervals
	}

	it := f.Workout.Intervals[0]
	return Definition{
		Name:       strings.TrimSpace(f.Name),
		DurationS:  it.Repeat * (it.OnDuration + it.OffDuration),
		OnPowerFTP: it.OnPower,
	}, nil
}

// LoadDefinitions parses every file matching pattern. Files that cannot be
// used are logged and skipped; only a bad pattern is an error.
func LoadDefinitions(pattern string, logger *log.Logger) ([]Definition, error) {
	if logger == nil {
		panic("LoadDefinitions: logger cannot be nil")
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("workout pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)

	defs := make([]Definition, 0, len(paths))
	for _, path := range paths {
		def, err := loadFile(path)
		if err != nil {
			logger.Printf("Workouts: skipping %s: %v", path, err)
			continue
		}
		defs = append(defs, def)
	}
	logger.Printf("Workouts: loaded %d of %d files matching %s", len(defs), len(paths), pattern)
	return defs, nil
}

func loadFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, err
	}
	defer f.Close()

	def, err := ParseZWO(f)
	if err != nil {
		return Definition{}, err
	}
	def.Path = path
	return def, nil
}

// Resolve converts definitions to catalog entries for a rider with the
// given FTP. Target power is truncated to whole watts.
func Resolve(defs []Definition, ftp float64) []Entry {
	entries := make([]Entry, len(defs))
	for i, d := range defs {
		entries[i] = Entry{
			Name:         d.Name,
			DurationS:    d.DurationS,
			TargetPowerW: int(d.OnPowerFTP * ftp),
		}
	}
	return entries
}
