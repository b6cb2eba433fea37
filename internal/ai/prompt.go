package ai

import (
	"fmt"
	"strings"

	"github.com/morgankhalil/venueconnect/internal/tour"
)

// BuildPrompt renders a snapshot as a fully-specified routing prompt. The
// output is deterministic for a given snapshot: stops are enumerated with
// stable integer ids in snapshot order, and the format instructions request
// a single JSON object so the parser chain has something to aim at.
func BuildPrompt(snap *tour.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a tour routing assistant. Plan the most travel-efficient route for %s", orUnknown(snap.ArtistName, "the artist"))
	if len(snap.Genres) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(snap.Genres, ", "))
	}
	fmt.Fprintf(&b, " on the tour %q.\n\n", snap.TourName)

	if snap.StartDate != nil || snap.EndDate != nil {
		b.WriteString("Tour window: ")
		if snap.StartDate != nil {
			b.WriteString(snap.StartDate.String())
		}
		b.WriteString(" to ")
		if snap.EndDate != nil {
			b.WriteString(snap.EndDate.String())
		}
		b.WriteString(".\n\n")
	}

	b.WriteString("Confirmed stops (dates and relative order are immovable):\n")
	writeStops(&b, snap.Confirmed)
	b.WriteString("\nPotential stops (may be reordered, scheduled or skipped):\n")
	writeStops(&b, snap.Potential)

	b.WriteString(`
Respond with a single JSON object and nothing else, using exactly these fields:
{
  "optimizedSequence": [stop ids in travel order, including every confirmed stop],
  "suggestedDates": {"<stop id>": "YYYY-MM-DD", ... for stops without a date},
  "recommendedVenues": [potential stop ids worth keeping],
  "suggestedSkips": [stop ids to drop from the tour],
  "estimatedDistanceReduction": <percent as a number>,
  "estimatedTimeSavings": <percent as a number>,
  "reasoning": "<one short paragraph>"
}
Use the stop ids given above. Do not move or re-date confirmed stops.
`)
	return b.String()
}

func writeStops(b *strings.Builder, stops []*tour.Stop) {
	if len(stops) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, s := range stops {
		fmt.Fprintf(b, "  id %d: %s, %s", s.ID, orUnknown(s.VenueName, "unknown venue"), orUnknown(s.City, "unknown city"))
		if s.HasCoords() {
			fmt.Fprintf(b, " (lat %.4f, lon %.4f)", *s.Latitude, *s.Longitude)
		} else {
			b.WriteString(" (no coordinates)")
		}
		if s.Date != nil {
			fmt.Fprintf(b, ", date %s", s.Date)
		} else {
			b.WriteString(", no date")
		}
		b.WriteString("\n")
	}
}

func orUnknown(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
