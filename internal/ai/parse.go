package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// rawSuggestion is the JSON shape requested from the collaborator, before
// any id reconciliation. Date-map keys stay strings because they may be ids
// or 1-based positions and are resolved later.
type rawSuggestion struct {
	OptimizedSequence          []int64           `json:"optimizedSequence"`
	SuggestedDates             map[string]string `json:"suggestedDates"`
	RecommendedVenues          []int64           `json:"recommendedVenues"`
	SuggestedSkips             []int64           `json:"suggestedSkips"`
	EstimatedDistanceReduction float64           `json:"estimatedDistanceReduction"`
	EstimatedTimeSavings       float64           `json:"estimatedTimeSavings"`
	Reasoning                  string            `json:"reasoning"`
}

// ParserStrategy extracts a suggestion from collaborator output. Strategies
// are tried in order; each is independent of the others so a new one can be
// added or tested in isolation.
type ParserStrategy interface {
	Name() string
	TryParse(text string) (*rawSuggestion, bool)
}

// defaultStrategies is the ordered fallback chain: direct JSON, fenced code
// block, a brace-delimited span containing the required key, any
// brace-delimited span, and finally a natural-language sequence sentence.
func defaultStrategies() []ParserStrategy {
	return []ParserStrategy{
		directJSON{},
		fencedBlock{},
		keyedObject{},
		anyObject{},
		sequenceSentence{},
	}
}

// parseSuggestion runs the strategy chain. A suggestion without an
// optimizedSequence counts as a failure, exactly like unparseable output.
func parseSuggestion(strategies []ParserStrategy, text string) (*rawSuggestion, string, bool) {
	for _, s := range strategies {
		if raw, ok := s.TryParse(text); ok && len(raw.OptimizedSequence) > 0 {
			return raw, s.Name(), true
		}
	}
	return nil, "", false
}

type directJSON struct{}

func (directJSON) Name() string { return "direct-json" }

func (directJSON) TryParse(text string) (*rawSuggestion, bool) {
	return unmarshalSuggestion(strings.TrimSpace(text))
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

type fencedBlock struct{}

func (fencedBlock) Name() string { return "fenced-block" }

func (fencedBlock) TryParse(text string) (*rawSuggestion, bool) {
	m := fencedBlockRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return unmarshalSuggestion(strings.TrimSpace(m[1]))
}

type keyedObject struct{}

func (keyedObject) Name() string { return "keyed-object" }

func (keyedObject) TryParse(text string) (*rawSuggestion, bool) {
	for _, span := range braceSpans(text) {
		if !strings.Contains(span, `"optimizedSequence"`) {
			continue
		}
		if raw, ok := unmarshalSuggestion(span); ok {
			return raw, true
		}
	}
	return nil, false
}

type anyObject struct{}

func (anyObject) Name() string { return "any-object" }

func (anyObject) TryParse(text string) (*rawSuggestion, bool) {
	for _, span := range braceSpans(text) {
		if raw, ok := unmarshalSuggestion(span); ok {
			return raw, true
		}
	}
	return nil, false
}

// sequenceSentence is the last resort: pull an ordered integer list out of
// prose like "the optimal sequence is: 3, 1, 2". The partial result carries
// only the ordering.
type sequenceSentence struct{}

var sequenceSentenceRe = regexp.MustCompile(`(?i)sequence(?:\s+is)?\s*[:\-]?\s*((?:\d+\s*,\s*)+\d+)`)

func (sequenceSentence) Name() string { return "sequence-sentence" }

func (sequenceSentence) TryParse(text string) (*rawSuggestion, bool) {
	m := sequenceSentenceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	var ids []int64
	for _, part := range strings.Split(m[1], ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, n)
	}
	if len(ids) == 0 {
		return nil, false
	}
	return &rawSuggestion{OptimizedSequence: ids}, true
}

func unmarshalSuggestion(text string) (*rawSuggestion, bool) {
	if text == "" || text[0] != '{' {
		return nil, false
	}
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}
	return &raw, true
}

// braceSpans returns every balanced top-level {...} span in the text, in
// order of appearance. Brace counting ignores string context, which is good
// enough for scavenging JSON out of prose.
func braceSpans(text string) []string {
	var spans []string
	depth := 0
	start := -1
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}
