// Package optimizer implements tour route optimization: a deterministic
// constrained-insertion engine, an orchestrator that can layer AI-suggested
// orderings on top of it, and the apply engine that commits an accepted
// result back to stop records.
package optimizer

import (
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// Method selects the optimization strategy for one request.
type Method string

const (
	// MethodStandard runs the deterministic engine only.
	MethodStandard Method = "standard"
	// MethodAI delegates sequencing to the AI collaborator, degrading to
	// the deterministic engine on any failure.
	MethodAI Method = "ai"
	// MethodAuto prefers AI when configured and re-applies deterministic
	// constraints on top of the AI ordering when custom options are set.
	MethodAuto Method = "auto"
)

// OptimizeFor selects the movable-stop ordering objective.
type OptimizeFor string

const (
	// ForDistance orders movable stops geographically by latitude.
	ForDistance OptimizeFor = "distance"
	// ForTime orders movable stops by priority first.
	ForTime OptimizeFor = "time"
	// ForBalanced blends priority, latitude and proximity to the fixed
	// skeleton. This is the default.
	ForBalanced OptimizeFor = "balanced"
)

// Default scheduling spacing between consecutive shows, in days.
const (
	DefaultMinDaysBetweenShows = 1
	DefaultMaxDaysBetweenShows = 7
	defaultPriority            = 5
)

// Options is the caller-supplied option record for one optimization.
// Zero values mean "use the default"; RespectFixedDates is a pointer so an
// explicit false is distinguishable from unset.
type Options struct {
	// VenuePriorities maps stop id to a 1-10 priority (default 5).
	// Priorities are request input, not persisted state.
	VenuePriorities map[int64]int `json:"venuePriorities,omitempty"`
	// RespectFixedDates keeps confirmed stops immovable. Default true.
	RespectFixedDates *bool `json:"respectFixedDates,omitempty"`
	// OptimizeFor selects the movable-stop comparator. Default balanced.
	OptimizeFor OptimizeFor `json:"optimizeFor,omitempty"`
	// PreferredDates proposes a date per stop id, used when it does not
	// collide with an already-assigned date.
	PreferredDates map[int64]tour.Day `json:"preferredDates,omitempty"`
	// AvoidDates lists days no show may be scheduled on.
	AvoidDates []tour.Day `json:"avoidDates,omitempty"`
	// MinDaysBetweenShows spaces newly suggested dates. Default 1.
	MinDaysBetweenShows int `json:"minDaysBetweenShows,omitempty"`
	// MaxDaysBetweenShows is advisory only and not enforced. Default 7.
	MaxDaysBetweenShows int `json:"maxDaysBetweenShows,omitempty"`
}

// normalized returns a copy with defaults filled in.
func (o Options) normalized() Options {
	if o.OptimizeFor == "" {
		o.OptimizeFor = ForBalanced
	}
	if o.RespectFixedDates == nil {
		t := true
		o.RespectFixedDates = &t
	}
	if o.MinDaysBetweenShows <= 0 {
		o.MinDaysBetweenShows = DefaultMinDaysBetweenShows
	}
	if o.MaxDaysBetweenShows <= 0 {
		o.MaxDaysBetweenShows = DefaultMaxDaysBetweenShows
	}
	return o
}

// Custom reports whether the caller supplied any non-default option. The
// orchestrator uses this to decide whether an AI ordering needs a
// constraint-aware re-run.
func (o Options) Custom() bool {
	if len(o.VenuePriorities) > 0 || len(o.PreferredDates) > 0 || len(o.AvoidDates) > 0 {
		return true
	}
	if o.RespectFixedDates != nil && !*o.RespectFixedDates {
		return true
	}
	if o.OptimizeFor != "" && o.OptimizeFor != ForBalanced {
		return true
	}
	if o.MinDaysBetweenShows != 0 && o.MinDaysBetweenShows != DefaultMinDaysBetweenShows {
		return true
	}
	if o.MaxDaysBetweenShows != 0 && o.MaxDaysBetweenShows != DefaultMaxDaysBetweenShows {
		return true
	}
	return false
}

// priorityFor returns the effective priority for a stop, clamped to [1,10].
func (o Options) priorityFor(id int64) int {
	p, ok := o.VenuePriorities[id]
	if !ok {
		return defaultPriority
	}
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}
