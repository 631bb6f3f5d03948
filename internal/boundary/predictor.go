// Package boundary predicts the next distance mark that carries a bonus.
package boundary

// ArchCount is the number of evenly spaced arches inside a climb segment
const ArchCount = 10

const kilometer = 1000

// Predictor returns the next reward boundary for a distance in meters
type Predictor interface {
	NextBoundary(distanceM int) int
}

// New returns the climb-arch predictor when climbDistanceM is positive,
// the plain kilometer predictor otherwise.
func New(climbDistanceM, leadInM int) Predictor {
	if climbDistanceM > 0 {
		return NewClimbArch(climbDistanceM, leadInM)
	}
	return Kilometer{}
}

// Kilometer places a boundary on every full kilometer
type Kilometer struct{}

// NextBoundary returns the smallest multiple of 1000 m strictly beyond distanceM
func (Kilometer) NextBoundary(distanceM int) int {
	return (floorDiv(distanceM, kilometer) + 1) * kilometer
}

// ClimbArch places ArchCount boundaries evenly over a climb that starts
// LeadInM meters into the course.
type ClimbArch struct {
	ClimbDistanceM int
	LeadInM        int
}

// NewClimbArch returns a climb-arch predictor
func NewClimbArch(climbDistanceM, leadInM int) ClimbArch {
	return ClimbArch{ClimbDistanceM: climbDistanceM, LeadInM: leadInM}
}

// Spacing returns the distance between two arches
func (c ClimbArch) Spacing() int {
	return c.ClimbDistanceM / ArchCount
}

// NextBoundary returns the first arch at or beyond distanceM. Past the top of
// the climb it keeps returning the last arch.
func (c ClimbArch) NextBoundary(distanceM int) int {
	spacing := c.Spacing()
	arch := c.LeadInM
	for i := 1; i <= ArchCount; i++ {
		arch = c.LeadInM + i*spacing
		if arch >= distanceM {
			break
		}
	}
	return arch
}

// floorDiv is integer division rounding toward negative infinity
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
