package workout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_SortsByNameAndIndexes(t *testing.T) {
	c := NewCatalog([]Entry{
		{Name: "charlie", DurationS: 30, TargetPowerW: 150},
		{Name: "alpha", DurationS: 20, TargetPowerW: 100},
		{Name: "bravo", DurationS: 40, TargetPowerW: 200},
	})

	got := c.Descriptors()
	require.Len(t, got, 3)
	assert.Equal(t, Descriptor{Name: "alpha", DurationS: 20, TargetPowerW: 100, Index: 0}, got[0])
	assert.Equal(t, Descriptor{Name: "bravo", DurationS: 40, TargetPowerW: 200, Index: 1}, got[1])
	assert.Equal(t, Descriptor{Name: "charlie", DurationS: 30, TargetPowerW: 150, Index: 2}, got[2])
}

func TestCatalog_CapsAtEightByName(t *testing.T) {
	entries := make([]Entry, 0, 10)
	// insert in reverse so truncation has to happen after sorting
	for i := 9; i >= 0; i-- {
		entries = append(entries, Entry{
			Name:         fmt.Sprintf("wo-%02d", i),
			DurationS:    30,
			TargetPowerW: 100 + 10*i,
		})
	}
	c := NewCatalog(entries)
	assert.Equal(t, MaxCatalogSize, c.Len())

	descs := c.Descriptors()
	assert.Equal(t, "wo-00", descs[0].Name)
	assert.Equal(t, "wo-07", descs[7].Name)

	// wo-08 (180W) and wo-09 (190W) are gone; the closest left is wo-07 at 170W
	for _, target := range []int{180, 190, 500} {
		d, ok := c.Nearest(target)
		require.True(t, ok)
		assert.Equal(t, "wo-07", d.Name, "target %d", target)
		assert.Equal(t, 7, d.Index)
	}
}

func TestCatalog_Nearest(t *testing.T) {
	c := NewCatalog([]Entry{
		{Name: "a", TargetPowerW: 100},
		{Name: "b", TargetPowerW: 150},
		{Name: "c", TargetPowerW: 200},
	})

	cases := []struct {
		target int
		want   int
	}{
		{target: 160, want: 150},
		{target: 0, want: 100},
		{target: 100, want: 100},
		{target: 174, want: 150},
		{target: 176, want: 200},
		{target: 1000, want: 200},
		// equally close: lower power wins
		{target: 125, want: 100},
		{target: 175, want: 150},
	}
	for _, tc := range cases {
		d, ok := c.Nearest(tc.target)
		require.True(t, ok)
		assert.Equal(t, tc.want, d.TargetPowerW, "target %d", tc.target)
	}
}

func TestCatalog_NearestEqualPowerPrefersLowerIndex(t *testing.T) {
	c := NewCatalog([]Entry{
		{Name: "zulu", TargetPowerW: 150},
		{Name: "echo", TargetPowerW: 150},
		{Name: "xray", TargetPowerW: 150},
		{Name: "kilo", TargetPowerW: 90},
	})

	for _, target := range []int{150, 149, 500} {
		d, ok := c.Nearest(target)
		require.True(t, ok)
		assert.Equal(t, "echo", d.Name, "target %d", target)
		assert.Equal(t, 0, d.Index)
	}
}

func TestCatalog_Empty(t *testing.T) {
	c := NewCatalog(nil)
	assert.Equal(t, 0, c.Len())
	_, ok := c.Nearest(150)
	assert.False(t, ok)
}
