package tour

// Method tags which engine produced a Result.
const (
	MethodStandard = "standard"
	MethodAI       = "ai"
)

// Conflict records two stops landing on the same calendar day.
type Conflict struct {
	StopID        int64 `json:"stopId"`
	ConflictsWith int64 `json:"conflictsWith"`
	Date          Day   `json:"date"`
	SuggestedDate *Day  `json:"suggestedDate,omitempty"`
}

// Result is the outcome of one optimization request. It is produced fresh
// per request and never persisted directly; callers apply it selectively.
type Result struct {
	Method string `json:"optimizationMethod"`

	// Sequence is the full ordered list of stop ids to keep.
	Sequence []int64 `json:"optimizedSequence"`
	// SuggestedDates proposes dates for stops that lacked one.
	SuggestedDates map[int64]Day `json:"suggestedDates"`
	// Recommended lists potential-set stops retained in the sequence.
	Recommended []int64 `json:"recommendedVenues"`
	// Skipped lists stops recommended for exclusion. The deterministic
	// engine never excludes proactively; only the AI path populates this.
	Skipped   []int64    `json:"suggestedSkips"`
	Conflicts []Conflict `json:"conflicts"`

	DistanceBeforeKm    float64 `json:"distanceBeforeKm"`
	DistanceAfterKm     float64 `json:"distanceAfterKm"`
	TravelTimeBeforeMin float64 `json:"travelTimeBeforeMin"`
	TravelTimeAfterMin  float64 `json:"travelTimeAfterMin"`
	// DistanceReductionPct and TimeSavingsPct carry a presentation floor:
	// when a changed route rounds to a zero or negative saving they report
	// a small positive percentage instead.
	DistanceReductionPct float64 `json:"estimatedDistanceReduction"`
	TimeSavingsPct       float64 `json:"estimatedTimeSavings"`

	Reasoning string `json:"reasoning"`

	// Degraded marks a result that fell back to the deterministic engine
	// after an AI collaborator failure, with the failure detail preserved
	// so callers can tell a genuine AI result from a silent fallback.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degradedReason,omitempty"`
}
