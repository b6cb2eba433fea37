// Package geo provides the distance and travel-time primitives the route
// optimizer scores with. All functions are pure and fail closed: a stop
// without coordinates contributes nothing rather than erroring.
package geo

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/morgankhalil/venueconnect/internal/tour"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Road-trip model constants for TravelTime. The estimate is a comparative
// metric only, not a logistics plan.
const (
	avgSpeedKmh   = 75.0
	minTripMinute = 45.0
)

// Distance returns the great-circle distance in kilometers between two
// coordinate pairs. It is symmetric and zero for identical points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// StopDistance returns the distance between two stops, or ok=false when
// either stop lacks coordinates and cannot be scored geographically.
func StopDistance(a, b *tour.Stop) (float64, bool) {
	if a == nil || b == nil || !a.HasCoords() || !b.HasCoords() {
		return 0, false
	}
	return Distance(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude), true
}

// TravelTime estimates road travel minutes for a distance. Monotonic, with
// a fixed minimum for any nonzero leg.
func TravelTime(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	minutes := distanceKm / avgSpeedKmh * 60
	if minutes < minTripMinute {
		return minTripMinute
	}
	return minutes
}

// LegDistances returns the distances of consecutive scorable legs in the
// ordered route. Pairs missing coordinates are skipped without error.
func LegDistances(ordered []*tour.Stop) []float64 {
	var legs []float64
	for i := 0; i+1 < len(ordered); i++ {
		if d, ok := StopDistance(ordered[i], ordered[i+1]); ok {
			legs = append(legs, d)
		}
	}
	return legs
}

// TotalRouteDistance sums Distance over consecutive coordinate-bearing
// pairs of the ordered route.
func TotalRouteDistance(ordered []*tour.Stop) float64 {
	legs := LegDistances(ordered)
	if len(legs) == 0 {
		return 0
	}
	return floats.Sum(legs)
}

// TotalRouteTravelTime sums TravelTime over the route's scorable legs.
func TotalRouteTravelTime(ordered []*tour.Stop) float64 {
	var total float64
	for _, leg := range LegDistances(ordered) {
		total += TravelTime(leg)
	}
	return total
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
