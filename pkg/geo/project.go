package geo

import (
	"math"

	"lintang/transitx/pkg/datastructure"

	"github.com/golang/geo/s2"
)

func toS2(p datastructure.LatLng) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
}

func fromS2(p s2.Point) datastructure.LatLng {
	ll := s2.LatLngFromPoint(p)
	return datastructure.LatLng{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// ProjectPointToSegment projects p onto the segment a-b and returns the
// closest point on the segment.
func ProjectPointToSegment(p, a, b datastructure.LatLng) datastructure.LatLng {
	projection := s2.Project(toS2(p), toS2(a), toS2(b))
	return fromS2(projection)
}

// ClosestPointOnPolyline walks every segment of shape and returns the closest
// point to p, the distance to it in meters, and the index of the segment
// start vertex. Returns index -1 for shapes shorter than 2 points.
func ClosestPointOnPolyline(p datastructure.LatLng, shape []datastructure.LatLng) (datastructure.LatLng, float64, int) {
	if len(shape) == 0 {
		return datastructure.LatLng{}, math.MaxFloat64, -1
	}
	if len(shape) == 1 {
		return shape[0], DistanceMeters(p, shape[0]), -1
	}

	best := shape[0]
	bestDist := math.MaxFloat64
	bestSegment := 0
	for i := 0; i+1 < len(shape); i++ {
		proj := ProjectPointToSegment(p, shape[i], shape[i+1])
		d := DistanceMeters(p, proj)
		if d < bestDist {
			bestDist = d
			best = proj
			bestSegment = i
		}
	}
	return best, bestDist, bestSegment
}
