package transitbuilder

import (
	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/tilestore"

	"golang.org/x/exp/slices"
)

// TransitLine is one (route, destination stop) pair at an origin stop. Line
// ids are unique within the tile being built, start at 1, 0 is reserved.
type TransitLine struct {
	LineID     uint32
	RouteIndex uint32
	DestSrcID  datastructure.GraphId
	ShapeID    uint32
}

// StopEdges collects the outbound transit topology of one origin stop.
// Intrastation connections are carried for a later station hierarchy pass
// and stay empty here.
type StopEdges struct {
	OriginSrcID  datastructure.GraphId
	Intrastation []datastructure.GraphId
	Lines        []TransitLine
}

type lineKey struct {
	routeIndex uint32
	destSrcID  datastructure.GraphId
}

// BuildStopEdges assigns line ids per origin stop and compacts every
// surviving departure into the tile's departure sidecar. Returns the
// per-origin stop edges and the number of departures written.
func BuildStopEdges(departures map[datastructure.GraphId][]Departure, builder *tilestore.GraphTileBuilder) (map[datastructure.GraphId]*StopEdges, int) {
	origins := make([]datastructure.GraphId, 0, len(departures))
	for origin := range departures {
		origins = append(origins, origin)
	}
	slices.SortFunc(origins, func(a, b datastructure.GraphId) int {
		return int(a.Index()) - int(b.Index())
	})

	stopEdges := make(map[datastructure.GraphId]*StopEdges, len(origins))
	nextLineID := uint32(1)
	written := 0

	for _, origin := range origins {
		se := &StopEdges{OriginSrcID: origin}
		lineIDs := map[lineKey]uint32{}

		for _, dep := range departures[origin] {
			key := lineKey{routeIndex: dep.RouteIndex, destSrcID: dep.DestSrcID}
			lineID, ok := lineIDs[key]
			if !ok {
				lineID = nextLineID
				nextLineID++
				lineIDs[key] = lineID
				se.Lines = append(se.Lines, TransitLine{
					LineID:     lineID,
					RouteIndex: dep.RouteIndex,
					DestSrcID:  dep.DestSrcID,
					ShapeID:    dep.ShapeID,
				})
			}

			builder.AddTransitDeparture(datastructure.TransitDeparture{
				LineID:         lineID,
				TripID:         dep.TripID,
				RouteIndex:     dep.RouteIndex,
				BlockID:        dep.BlockID,
				HeadsignOffset: builder.AddName(dep.Headsign),
				DepartureTime:  dep.DepTime,
				ElapsedTime:    elapsed(dep.DepTime, dep.ArrTime),
				EndDay:         dep.EndDay,
				DOW:            dep.DOWMask,
				Days:           dep.Days,
				WheelchairOK:   dep.WheelchairAccessible,
				BicycleOK:      dep.BikesAllowed,
			})
			written++
		}

		stopEdges[origin] = se
	}

	return stopEdges, written
}

func elapsed(dep, arr uint32) uint32 {
	if arr < dep {
		return 0
	}
	return arr - dep
}
