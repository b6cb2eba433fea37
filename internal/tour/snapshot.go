package tour

// Snapshot is the immutable working set for one optimization request. It is
// built once from persisted records and never mutated while the request is
// in flight; optimizers read it and emit a Result.
type Snapshot struct {
	TourID     int64    `json:"tourId"`
	TourName   string   `json:"tourName"`
	ArtistName string   `json:"artistName"`
	Genres     []string `json:"genres,omitempty"`
	StartDate  *Day     `json:"startDate,omitempty"`
	EndDate    *Day     `json:"endDate,omitempty"`

	// Confirmed holds the fixed skeleton, Potential the movable candidates
	// (hold and potential stops). All is Confirmed followed by Potential.
	// Cancelled stops never enter a snapshot.
	Confirmed []*Stop `json:"confirmedStops"`
	Potential []*Stop `json:"potentialStops"`
	All       []*Stop `json:"allStops"`
}

// NewSnapshot assembles a Snapshot from a tour, its artist and its stops.
// Cancelled stops are dropped before any partitioning.
func NewSnapshot(t *Tour, a *Artist, stops []*Stop) *Snapshot {
	snap := &Snapshot{
		TourID:    t.ID,
		TourName:  t.Name,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
	}
	if a != nil {
		snap.ArtistName = a.Name
		snap.Genres = a.Genres
	}
	for _, s := range stops {
		if s.Status == StatusCancelled {
			continue
		}
		if s.Fixed() {
			snap.Confirmed = append(snap.Confirmed, s)
		} else {
			snap.Potential = append(snap.Potential, s)
		}
	}
	snap.All = make([]*Stop, 0, len(snap.Confirmed)+len(snap.Potential))
	snap.All = append(snap.All, snap.Confirmed...)
	snap.All = append(snap.All, snap.Potential...)
	return snap
}

// Stop returns the snapshot stop with the given id.
func (s *Snapshot) Stop(id int64) (*Stop, bool) {
	for _, st := range s.All {
		if st.ID == id {
			return st, true
		}
	}
	return nil, false
}
