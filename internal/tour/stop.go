// Package tour holds the booking domain model shared by the optimizer, the
// AI suggestion adapter and the persistence layer: stops, tours, snapshots
// and optimization results.
package tour

// StopStatus is the lifecycle state of a venue's participation in a tour.
type StopStatus string

const (
	// StatusConfirmed marks a booked stop. Confirmed stops are fixed: the
	// optimizer must never change their date or relative position.
	StatusConfirmed StopStatus = "confirmed"
	// StatusHold marks a tentatively scheduled stop.
	StatusHold StopStatus = "hold"
	// StatusPotential marks a candidate venue not yet scheduled.
	StatusPotential StopStatus = "potential"
	// StatusCancelled marks a stop dropped from the tour.
	StatusCancelled StopStatus = "cancelled"
)

// Stop is one venue's participation in a tour.
type Stop struct {
	ID        int64      `json:"id"`
	TourID    int64      `json:"tourId"`
	VenueName string     `json:"venueName"`
	City      string     `json:"city"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Status    StopStatus `json:"status"`
	Date      *Day       `json:"date,omitempty"`
	Sequence  int        `json:"sequence"`
}

// HasCoords reports whether the stop can participate in distance scoring.
// A stop without coordinates contributes nothing to route metrics.
func (s *Stop) HasCoords() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Fixed reports whether optimization must leave the stop's date and
// relative position untouched.
func (s *Stop) Fixed() bool {
	return s.Status == StatusConfirmed
}

// Tour is the aggregate a set of stops belongs to.
type Tour struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	ArtistID           int64   `json:"artistId"`
	StartDate          *Day    `json:"startDate,omitempty"`
	EndDate            *Day    `json:"endDate,omitempty"`
	TotalDistanceKm    float64 `json:"totalDistanceKm"`
	TotalTravelTimeMin float64 `json:"totalTravelTimeMin"`
	OptimizationScore  int     `json:"optimizationScore"`
}

// Artist is the act a tour routes.
type Artist struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
}

// ResolveStopRef resolves a stop reference that may be either a genuine stop
// id or a 1-based position into stops. An exact id match always wins; only
// when no stop carries the id is the value treated as a positional index.
//
// AI collaborators echo back both forms, so every consumer of externally
// produced stop references (sequence resolution, date-map lookups, apply-time
// updates) must go through this one function.
func ResolveStopRef(ref int64, stops []*Stop) (*Stop, bool) {
	for _, s := range stops {
		if s.ID == ref {
			return s, true
		}
	}
	if ref >= 1 && int(ref) <= len(stops) {
		return stops[ref-1], true
	}
	return nil, false
}
