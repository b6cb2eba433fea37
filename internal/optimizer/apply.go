package optimizer

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/morgankhalil/venueconnect/internal/geo"
	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/store"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// ApplyInput is an accepted optimization to commit: the sequence to keep
// (ids or 1-based positions) and optional suggested dates keyed the same
// ambiguous way.
type ApplyInput struct {
	Sequence       []int64            `json:"optimizedSequence"`
	SuggestedDates map[int64]tour.Day `json:"suggestedDates,omitempty"`
}

// ApplyMetrics is the recomputed aggregate state after an apply.
type ApplyMetrics struct {
	OptimizedDistanceKm    float64 `json:"optimizedDistance"`
	OptimizedTravelTimeMin float64 `json:"optimizedTravelTime"`
	OptimizationScore      int     `json:"optimizationScore"`
	// UpdatedStops counts stops actually written; callers can detect a
	// partial application by comparing it with the requested sequence.
	UpdatedStops int `json:"updatedStops"`
	SkippedRefs  int `json:"skippedRefs,omitempty"`
}

// Applier commits accepted optimization results back to stop records.
// Concurrent applies for one tour are not coordinated here; the caller
// must serialize them.
type Applier struct {
	store  store.Store
	logger *logging.Logger
}

// NewApplier creates an apply engine over the given store.
func NewApplier(st store.Store, logger *logging.Logger) *Applier {
	return &Applier{store: st, logger: logger}
}

// Apply resolves each referenced stop, writes its new sequence position,
// its suggested date when one is present, and promotes potential stops to
// hold. Confirmed stops keep their dates and status. A reference that
// cannot be resolved is logged and skipped; it never aborts the batch.
func (a *Applier) Apply(ctx context.Context, tourID int64, in ApplyInput) (*ApplyMetrics, error) {
	listed, err := a.store.ListStops(ctx, tourID)
	if err != nil {
		return nil, WrapError(err, "load stops").WithOperation("apply").WithComponent("applier")
	}

	// Cancelled stops are invisible to optimization, so positional refs
	// count only the stops an optimization result could actually contain.
	stops := make([]*tour.Stop, 0, len(listed))
	for _, s := range listed {
		if s.Status != tour.StatusCancelled {
			stops = append(stops, s)
		}
	}

	// Date-map keys follow the same id-or-position reconciliation rule as
	// the sequence itself.
	dates := make(map[int64]tour.Day, len(in.SuggestedDates))
	for ref, day := range in.SuggestedDates {
		if s, ok := tour.ResolveStopRef(ref, stops); ok {
			dates[s.ID] = day
		}
	}

	var ordered []*tour.Stop
	skipped := 0
	for pos, ref := range in.Sequence {
		s, ok := tour.ResolveStopRef(ref, stops)
		if !ok {
			skipped++
			if a.logger != nil {
				a.logger.Warn("skipping unresolvable stop reference", map[string]interface{}{
					"tour_id":  tourID,
					"ref":      ref,
					"position": pos,
				})
			}
			continue
		}

		var date *tour.Day
		var status tour.StopStatus
		if !s.Fixed() {
			if d, ok := dates[s.ID]; ok {
				date = &d
			}
			if s.Status == tour.StatusPotential {
				status = tour.StatusHold
			}
		}

		if err := a.store.UpdateStopPlacement(ctx, s.ID, len(ordered), date, status); err != nil {
			skipped++
			if a.logger != nil {
				a.logger.Warn("stop placement update failed", map[string]interface{}{
					"tour_id": tourID,
					"stop_id": s.ID,
					"error":   err.Error(),
				})
			}
			continue
		}

		applied := *s
		applied.Sequence = len(ordered)
		if date != nil {
			applied.Date = date
		}
		ordered = append(ordered, &applied)
	}

	distance := geo.TotalRouteDistance(ordered)
	travelTime := geo.TotalRouteTravelTime(ordered)
	score := optimizationScore(ordered)
	if err := a.store.UpdateTourMetrics(ctx, tourID, distance, travelTime, score); err != nil {
		return nil, WrapError(err, "persist tour metrics").WithOperation("apply").WithComponent("applier")
	}

	return &ApplyMetrics{
		OptimizedDistanceKm:    distance,
		OptimizedTravelTimeMin: travelTime,
		OptimizationScore:      score,
		UpdatedStops:           len(ordered),
		SkippedRefs:            skipped,
	}, nil
}

// optimizationScore grades the applied route on [0,100], blending route
// compactness (mean leg distance) with schedule coverage (the fraction of
// stops carrying a date).
func optimizationScore(ordered []*tour.Stop) int {
	if len(ordered) == 0 {
		return 0
	}

	dated := 0
	for _, s := range ordered {
		if s.Date != nil {
			dated++
		}
	}
	coverage := float64(dated) / float64(len(ordered))

	compact := 1.0
	if legs := geo.LegDistances(ordered); len(legs) > 0 {
		meanLeg := stat.Mean(legs, nil)
		compact = 1 / (1 + meanLeg/500)
	}

	score := int(math.Round(100 * (0.6*compact + 0.4*coverage)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
