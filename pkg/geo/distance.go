package geo

import (
	"lintang/transitx/pkg/datastructure"
)

const earthRadiusM = 6371000.0

// DistanceMeters returns the great-circle distance between two shape points
// in meters.
func DistanceMeters(a, b datastructure.LatLng) float64 {
	return toS2(a).Distance(toS2(b)).Radians() * earthRadiusM
}

// PolylineLengthMeters sums the segment lengths of shape in meters.
func PolylineLengthMeters(shape []datastructure.LatLng) float64 {
	total := 0.0
	for i := 0; i+1 < len(shape); i++ {
		total += DistanceMeters(shape[i], shape[i+1])
	}
	return total
}
