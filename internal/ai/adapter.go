package ai

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// DefaultTimeout bounds one collaborator call. The call holds no locks, so
// a slow provider only costs the caller, never the process.
const DefaultTimeout = 30 * time.Second

// Suggestion is a reconciled AI routing proposal: every stop reference has
// been resolved against the snapshot, every date parsed.
type Suggestion struct {
	// Sequence holds resolved stop ids in suggested travel order.
	Sequence []int64
	// SuggestedDates maps resolved stop ids to proposed days.
	SuggestedDates map[int64]tour.Day
	Recommended    []int64
	Skips          []int64

	EstimatedDistanceReduction float64
	EstimatedTimeSavings       float64
	Reasoning                  string

	// Strategy names the parser that extracted the suggestion.
	Strategy string
}

// Adapter produces routing suggestions from a TextGenerator while staying
// safe against that collaborator's unreliability: bounded call time, an
// ordered chain of output parsers and consistent id reconciliation.
type Adapter struct {
	gen        TextGenerator
	timeout    time.Duration
	strategies []ParserStrategy
	logger     *logging.Logger
}

// NewAdapter wraps a generator. A zero timeout falls back to DefaultTimeout.
func NewAdapter(gen TextGenerator, timeout time.Duration, logger *logging.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		gen:        gen,
		timeout:    timeout,
		strategies: defaultStrategies(),
		logger:     logger,
	}
}

// Suggest asks the collaborator for an alternative ordering of the snapshot.
// Any failure (call error, timeout, cancellation, unparseable or incomplete
// output) is returned as an error; the caller decides how to degrade.
func (a *Adapter) Suggest(ctx context.Context, snap *tour.Snapshot) (*Suggestion, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.gen.Generate(callCtx, BuildPrompt(snap))
	if err != nil {
		return nil, fmt.Errorf("generate suggestion: %w", err)
	}

	raw, strategy, ok := parseSuggestion(a.strategies, text)
	if !ok {
		return nil, fmt.Errorf("no parser strategy extracted an optimized sequence from %d bytes of output", len(text))
	}

	sug := a.reconcile(snap, raw)
	sug.Strategy = strategy
	if len(sug.Sequence) == 0 {
		return nil, fmt.Errorf("suggestion via %s referenced no resolvable stops", strategy)
	}

	if a.logger != nil {
		a.logger.Debug("AI suggestion parsed", map[string]interface{}{
			"strategy": strategy,
			"stops":    len(sug.Sequence),
			"tour_id":  snap.TourID,
		})
	}
	return sug, nil
}

// reconcile maps collaborator stop references (ids or 1-based positions)
// onto real stops. Unresolvable references and malformed dates are dropped,
// not fatal; duplicates keep their first occurrence.
func (a *Adapter) reconcile(snap *tour.Snapshot, raw *rawSuggestion) *Suggestion {
	sug := &Suggestion{
		SuggestedDates:             make(map[int64]tour.Day),
		EstimatedDistanceReduction: raw.EstimatedDistanceReduction,
		EstimatedTimeSavings:       raw.EstimatedTimeSavings,
		Reasoning:                  raw.Reasoning,
	}

	seen := make(map[int64]bool)
	for _, ref := range raw.OptimizedSequence {
		s, ok := tour.ResolveStopRef(ref, snap.All)
		if !ok || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		sug.Sequence = append(sug.Sequence, s.ID)
	}

	for key, value := range raw.SuggestedDates {
		ref, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		s, ok := tour.ResolveStopRef(ref, snap.All)
		if !ok {
			continue
		}
		day, err := tour.ParseDay(value)
		if err != nil {
			continue
		}
		sug.SuggestedDates[s.ID] = day
	}

	sug.Recommended = resolveRefs(raw.RecommendedVenues, snap)
	sug.Skips = resolveRefs(raw.SuggestedSkips, snap)
	return sug
}

func resolveRefs(refs []int64, snap *tour.Snapshot) []int64 {
	var out []int64
	for _, ref := range refs {
		if s, ok := tour.ResolveStopRef(ref, snap.All); ok {
			out = append(out, s.ID)
		}
	}
	return out
}
