// Package feed delivers telemetry events from Sauce4Zwift or from a local
// simulator.
package feed

import (
	"context"
	"errors"
)

var (
	// ErrMalformedEvent marks a message that could not be turned into an Event
	ErrMalformedEvent = errors.New("malformed telemetry event")

	// ErrSubscribeFailed is returned when the server rejects the subscription
	ErrSubscribeFailed = errors.New("subscribe request failure")
)

// Event is one telemetry update for the rider
type Event struct {
	FTP          float64
	DistanceM    float64
	ElapsedTimeS float64
	PowerW       float64
}

// Source produces events until ctx is cancelled or it fails. Run blocks and
// must not close out.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}
