// Package store defines the persistence boundary of the optimizer: reading
// tour, artist and stop records into snapshots, and writing back the
// placement updates an accepted optimization produces.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/morgankhalil/venueconnect/internal/tour"
)

// ErrNotFound is returned when a tour, artist or stop does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the stop-store collaborator the optimizer reads from and the
// apply engine writes to. The optimizer never touches persistence through
// any other path.
type Store interface {
	GetTour(ctx context.Context, id int64) (*tour.Tour, error)
	GetArtist(ctx context.Context, id int64) (*tour.Artist, error)
	// ListStops returns the tour's stops ordered by stored sequence.
	ListStops(ctx context.Context, tourID int64) ([]*tour.Stop, error)
	// UpdateStopPlacement writes sequence and, when non-nil, date and
	// status for one stop.
	UpdateStopPlacement(ctx context.Context, stopID int64, sequence int, date *tour.Day, status tour.StopStatus) error
	// UpdateTourMetrics persists recomputed aggregates on the tour record.
	UpdateTourMetrics(ctx context.Context, tourID int64, distanceKm, travelTimeMin float64, score int) error
}

// BuildSnapshot assembles the optimizer's working data set for one tour.
// The returned snapshot is immutable for the duration of the request; all
// hidden global state stays out of the optimizer by construction.
func BuildSnapshot(ctx context.Context, s Store, tourID int64) (*tour.Snapshot, error) {
	t, err := s.GetTour(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: tour %d: %w", tourID, err)
	}

	// A tour without an artist record is still optimizable.
	artist, err := s.GetArtist(ctx, t.ArtistID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("build snapshot: artist %d: %w", t.ArtistID, err)
	}

	stops, err := s.ListStops(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: stops for tour %d: %w", tourID, err)
	}

	return tour.NewSnapshot(t, artist, stops), nil
}
