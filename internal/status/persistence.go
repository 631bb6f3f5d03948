package status

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Totals are the counters summed over every finished session
type Totals struct {
	Sessions int      `json:"sessions"`
	Counters Counters `json:"counters"`
}

type totalsFile struct {
	Totals Totals `json:"totals"`
}

// TotalsStore keeps Totals in a JSON file between runs
type TotalsStore struct {
	filePath string
	data     totalsFile
	logger   *log.Logger
}

// DefaultTotalsPath returns ~/.auto-workout/state.json, or a path in the
// working directory when there is no home directory
func DefaultTotalsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".auto-workout", "state.json")
}

// NewTotalsStore loads the totals kept at filePath. A missing or unreadable
// file starts from zero.
func NewTotalsStore(filePath string, logger *log.Logger) *TotalsStore {
	if logger == nil {
		panic("TotalsStore: logger cannot be nil")
	}
	s := &TotalsStore{filePath: filePath, logger: logger}
	s.load()
	return s
}

// Totals returns the loaded totals
func (s *TotalsStore) Totals() Totals {
	return s.data.Totals
}

// AddSession adds one finished session's counters and saves the file
func (s *TotalsStore) AddSession(c Counters) error {
	t := &s.data.Totals
	t.Sessions++
	t.Counters.Starts += c.Starts
	t.Counters.Cancels += c.Cancels
	t.Counters.Closes += c.Closes
	t.Counters.UTurns += c.UTurns
	t.Counters.Powerups += c.Powerups
	return s.save()
}

func (s *TotalsStore) load() {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		s.logger.Printf("TotalsStore: load %s (no existing file)", s.filePath)
		return
	}
	var data totalsFile
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Printf("TotalsStore: load %s failed to parse: %v", s.filePath, err)
		return
	}
	s.data = data
	s.logger.Printf("TotalsStore: load %s -> %d sessions", s.filePath, s.data.Totals.Sessions)
}

func (s *TotalsStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filePath, raw, 0o644); err != nil {
		return err
	}
	s.logger.Printf("TotalsStore: save %s -> %d sessions", s.filePath, s.data.Totals.Sessions)
	return nil
}
