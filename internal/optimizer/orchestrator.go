package optimizer

import (
	"context"
	"time"

	"github.com/morgankhalil/venueconnect/internal/ai"
	"github.com/morgankhalil/venueconnect/internal/geo"
	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// Orchestrator selects the optimization strategy for each request and
// applies the fallback rules: AI failures always degrade to the
// deterministic engine, never to the caller.
type Orchestrator struct {
	det     *Deterministic
	adapter *ai.Adapter // nil when no AI collaborator is configured
	logger  *logging.Logger
}

// NewOrchestrator wires the deterministic engine with an optional AI
// adapter. A nil adapter disables the ai and auto AI paths.
func NewOrchestrator(det *Deterministic, adapter *ai.Adapter, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{det: det, adapter: adapter, logger: logger}
}

// Optimize produces exactly one Result for the snapshot. It never returns
// an error: collaborator failures are recovered locally and surfaced via
// the result's Degraded fields.
func (o *Orchestrator) Optimize(ctx context.Context, snap *tour.Snapshot, opts Options, method Method) *tour.Result {
	start := time.Now()
	defer func() { optimizeDuration.Observe(time.Since(start).Seconds()) }()

	var res *tour.Result
	switch method {
	case MethodStandard:
		res = o.det.Optimize(snap, opts)
	case MethodAI:
		res = o.optimizeAI(ctx, snap, opts, false)
	default:
		res = o.optimizeAI(ctx, snap, opts, true)
	}

	optimizeTotal.WithLabelValues(string(method), res.Method).Inc()
	return res
}

// optimizeAI runs the AI path. In auto mode a successful suggestion is
// re-run through the deterministic engine when the caller supplied custom
// options, so priority and date constraints land on top of the AI's
// spatial judgment.
func (o *Orchestrator) optimizeAI(ctx context.Context, snap *tour.Snapshot, opts Options, auto bool) *tour.Result {
	if o.adapter == nil {
		return o.degrade(snap, opts, "AI optimization is not configured")
	}

	sug, err := o.adapter.Suggest(ctx, snap)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("AI suggestion failed, using deterministic optimizer", map[string]interface{}{
				"tour_id": snap.TourID,
				"error":   err.Error(),
			})
		}
		return o.degrade(snap, opts, err.Error())
	}

	if auto && opts.Custom() {
		return o.constrainSuggestion(snap, opts, sug)
	}
	return o.resultFromSuggestion(snap, sug)
}

// degrade returns the deterministic result flagged as a fallback so callers
// can distinguish it from a genuine AI result.
func (o *Orchestrator) degrade(snap *tour.Snapshot, opts Options, reason string) *tour.Result {
	aiFallbackTotal.Inc()
	res := o.det.Optimize(snap, opts)
	res.Degraded = true
	res.DegradedReason = reason
	return res
}

// constrainSuggestion re-runs the deterministic engine seeded with the AI
// ordering and merges: the re-run's sequence, dates and conflicts win, the
// AI's reasoning is kept with an annotation.
func (o *Orchestrator) constrainSuggestion(snap *tour.Snapshot, opts Options, sug *ai.Suggestion) *tour.Result {
	res := o.det.OptimizeSeeded(seededSnapshot(snap, sug.Sequence), opts)
	res.Method = tour.MethodAI
	res.Skipped = append([]int64{}, sug.Skips...)
	if sug.Reasoning != "" {
		res.Reasoning = sug.Reasoning + " (enhanced with constraints)"
	}
	return res
}

// seededSnapshot reorders the snapshot's stop set to the AI sequence. Stops
// the AI dropped stay dropped, except confirmed stops, which are always
// reinstated; the deterministic re-run slots them back by date.
func seededSnapshot(snap *tour.Snapshot, seq []int64) *tour.Snapshot {
	kept := make(map[int64]bool, len(seq))
	ordered := make([]*tour.Stop, 0, len(snap.All))
	for _, id := range seq {
		if s, ok := snap.Stop(id); ok && !kept[id] {
			kept[id] = true
			ordered = append(ordered, s)
		}
	}
	for _, c := range snap.Confirmed {
		if !kept[c.ID] {
			ordered = append(ordered, c)
		}
	}

	seeded := *snap
	seeded.All = ordered
	return &seeded
}

// resultFromSuggestion turns a reconciled suggestion into a Result,
// recomputing metrics from the resolved ordering so the collaborator's own
// estimates never stand unverified.
func (o *Orchestrator) resultFromSuggestion(snap *tour.Snapshot, sug *ai.Suggestion) *tour.Result {
	ordered := make([]*tour.Stop, 0, len(sug.Sequence))
	for _, id := range sug.Sequence {
		if s, ok := snap.Stop(id); ok {
			ordered = append(ordered, s)
		}
	}

	// Dates only for undated, non-confirmed stops; the AI is never allowed
	// to re-date a confirmed booking.
	suggested := make(map[int64]tour.Day)
	for id, day := range sug.SuggestedDates {
		if s, ok := snap.Stop(id); ok && s.Date == nil && !s.Fixed() {
			suggested[s.ID] = day
		}
	}

	before := geo.TotalRouteDistance(snap.All)
	after := geo.TotalRouteDistance(ordered)
	beforeTime := geo.TotalRouteTravelTime(snap.All)
	afterTime := geo.TotalRouteTravelTime(ordered)

	res := &tour.Result{
		Method:              tour.MethodAI,
		Sequence:            append([]int64{}, sug.Sequence...),
		SuggestedDates:      suggested,
		Recommended:         append([]int64{}, sug.Recommended...),
		Skipped:             append([]int64{}, sug.Skips...),
		Conflicts:           dateConflicts(ordered, suggested),
		DistanceBeforeKm:    before,
		DistanceAfterKm:     after,
		TravelTimeBeforeMin: beforeTime,
		TravelTimeAfterMin:  afterTime,
		Reasoning:           sug.Reasoning,
	}
	if len(res.Recommended) == 0 {
		res.Recommended = retainedPotential(snap, ordered)
	}
	if res.Reasoning == "" {
		res.Reasoning = "AI-suggested ordering."
	}

	// Reconcile the collaborator's claimed savings against the baseline:
	// computed percentages win whenever the route is measurable.
	changed := routeChanged(snap.All, ordered)
	if before > 0 {
		res.DistanceReductionPct = savingsPct(before, after, changed)
	} else {
		res.DistanceReductionPct = clampPct(sug.EstimatedDistanceReduction)
	}
	if beforeTime > 0 {
		res.TimeSavingsPct = savingsPct(beforeTime, afterTime, changed)
	} else {
		res.TimeSavingsPct = clampPct(sug.EstimatedTimeSavings)
	}
	return res
}

// dateConflicts reports same-day collisions over effective dates (existing
// or suggested) in sequence order.
func dateConflicts(ordered []*tour.Stop, suggested map[int64]tour.Day) []tour.Conflict {
	conflicts := []tour.Conflict{}
	taken := make(map[string]int64)
	for _, s := range ordered {
		var day tour.Day
		switch {
		case s.Date != nil:
			day = *s.Date
		default:
			d, ok := suggested[s.ID]
			if !ok {
				continue
			}
			day = d
		}
		if other, ok := taken[day.String()]; ok {
			alt := day.AddDays(1)
			conflicts = append(conflicts, tour.Conflict{
				StopID:        s.ID,
				ConflictsWith: other,
				Date:          day,
				SuggestedDate: &alt,
			})
			continue
		}
		taken[day.String()] = s.ID
	}
	return conflicts
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
