package scoring

import (
	"math"
)

// HaversineKm calculates the great-circle distance between two points in
// kilometers. It is symmetric and returns 0 for identical coordinates.
// This approximates straight-line distance, not road distance.
func HaversineKm(a, b Coordinate) float64 {
	const R = 6371.0 // Earth radius km
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
