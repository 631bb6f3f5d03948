// Package workout holds the workout catalog the controller picks from and
// the loader for ZWO workout files.
package workout

import (
	"sort"
)

// MaxCatalogSize is how many workouts the automation layer can address. The
// catalog keeps the first MaxCatalogSize workouts by name; the rest can never
// be selected.
const MaxCatalogSize = 8

// Entry is a workout as supplied by a catalog source, with its target power
// already resolved to watts.
type Entry struct {
	Name         string
	DurationS    int
	TargetPowerW int
}

// Descriptor is a catalog workout with its stable position in the catalog.
// Index is the 0-based position in name order, which is how the automation
// layer selects it.
type Descriptor struct {
	Name         string
	DurationS    int
	TargetPowerW int
	Index        int
}

// Catalog is the immutable, name-ordered set of selectable workouts
type Catalog struct {
	byIndex []Descriptor
	byPower []Descriptor
}

// NewCatalog sorts entries by name, numbers them in that order and keeps the
// first MaxCatalogSize.
func NewCatalog(entries []Entry) *Catalog {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > MaxCatalogSize {
		sorted = sorted[:MaxCatalogSize]
	}

	c := &Catalog{byIndex: make([]Descriptor, len(sorted))}
	for i, e := range sorted {
		c.byIndex[i] = Descriptor{
			Name:         e.Name,
			DurationS:    e.DurationS,
			TargetPowerW: e.TargetPowerW,
			Index:        i,
		}
	}

	c.byPower = make([]Descriptor, len(c.byIndex))
	copy(c.byPower, c.byIndex)
	sort.SliceStable(c.byPower, func(i, j int) bool {
		return c.byPower[i].TargetPowerW < c.byPower[j].TargetPowerW
	})
	return c
}

// Len returns the number of selectable workouts
func (c *Catalog) Len() int {
	return len(c.byIndex)
}

// Descriptors returns the catalog in index order
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.byIndex))
	copy(out, c.byIndex)
	return out
}

// Nearest returns the workout whose target power is closest to targetW.
// When two workouts are equally close the lower power wins, and among equal
// powers the lower index wins. ok is false for an empty catalog.
func (c *Catalog) Nearest(targetW int) (d Descriptor, ok bool) {
	n := len(c.byPower)
	if n == 0 {
		return Descriptor{}, false
	}

	// first entry with power >= targetW
	i := sort.Search(n, func(i int) bool {
		return c.byPower[i].TargetPowerW >= targetW
	})
	switch {
	case i == 0:
		return c.byPower[0], true
	case i == n:
		return c.firstWithPower(c.byPower[n-1].TargetPowerW), true
	}

	below, above := c.byPower[i-1], c.byPower[i]
	if targetW-below.TargetPowerW <= above.TargetPowerW-targetW {
		return c.firstWithPower(below.TargetPowerW), true
	}
	return above, true
}

// firstWithPower returns the lowest-index descriptor with exactly watts.
// byPower is stable-sorted from index order, so that is the first match.
func (c *Catalog) firstWithPower(watts int) Descriptor {
	i := sort.Search(len(c.byPower), func(i int) bool {
		return c.byPower[i].TargetPowerW >= watts
	})
	return c.byPower[i]
}
