package transitbuilder

import (
	"log/slog"

	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/geo"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/transitfeed"
)

const (
	transitConnectionSpeedKmh = 5
	transitEdgeSpeedKmh       = 5
)

// GetTransitUse maps a GTFS vehicle type onto an edge use. Ferry keeps the
// rail mapping until a dedicated ferry use exists.
func GetTransitUse(vehicleType uint32) datastructure.Use {
	switch vehicleType {
	case 0, 1, 2, 5, 6, 7:
		return datastructure.UseRail
	case 3:
		return datastructure.UseBus
	case 4:
		return datastructure.UseRail
	default:
		return datastructure.UseRail
	}
}

// AddRoutes writes the route sidecar records and returns each route's
// vehicle type by index.
func AddRoutes(record *transitfeed.Record, builder *tilestore.GraphTileBuilder) []uint32 {
	vehicleTypes := make([]uint32, len(record.Routes))
	for i := range record.Routes {
		r := &record.Routes[i]
		vehicleTypes[i] = r.VehicleType
		builder.AddTransitRoute(datastructure.TransitRoute{
			Use:             GetTransitUse(r.VehicleType),
			OnestopID:       r.OnestopID,
			OperatorOnestop: r.OperatedByID,
			OperatorName:    r.OperatedByName,
			Name:            r.Name,
			ShortName:       r.ShortName,
			Color:           r.Color,
			TextColor:       r.TextColor,
		})
	}
	return vehicleTypes
}

// finalStopID translates a stop source id into final id space: same tile and
// level, index shifted past the tile's road nodes. Invalid when the stop's
// tile is not part of the build set.
func finalStopID(srcID datastructure.GraphId, tileNodeCounts map[datastructure.GraphId]uint32) datastructure.GraphId {
	count, ok := tileNodeCounts[srcID.TileBase()]
	if !ok {
		return datastructure.InvalidGraphId()
	}
	return srcID.WithIndex(srcID.Index() + count)
}

// rewriteInput bundles everything AddToGraph needs beyond the builder.
type rewriteInput struct {
	tileBase       datastructure.GraphId
	stops          []transitfeed.Stop
	stopEdges      map[datastructure.GraphId]*StopEdges
	conns          []ConnectionEdge
	stopAccess     map[datastructure.GraphId]bool
	vehicleTypes   []uint32
	tileNodeCounts map[datastructure.GraphId]uint32
	transitDir     string
}

// AddToGraph rebuilds the tile in place: road nodes keep their index range
// with connection edges interleaved at the snapped nodes, transit nodes are
// appended in stop source order, and sign/restriction edge references are
// shifted past the inserted edges.
func AddToGraph(logger *slog.Logger, builder *tilestore.GraphTileBuilder, in *rewriteInput) {
	tileBase := builder.Header().GraphID.TileBase()

	origNodes := builder.Nodes()
	origEdges := builder.DirectedEdges()
	origNodeCount := len(origNodes)

	newNodes := make([]datastructure.NodeInfo, 0, origNodeCount+len(in.stops))
	newEdges := make([]datastructure.DirectedEdge, 0, len(origEdges)+2*len(in.conns))

	nextSign := 0
	nextRestriction := 0
	signCount := builder.SignCount()
	restrictionCount := builder.AccessRestrictionCount()

	added := 0
	connIdx := 0

	for k := 0; k < origNodeCount; k++ {
		node := origNodes[k]
		newEdgeIndex := uint32(len(newEdges))

		for j := uint32(0); j < node.EdgeCount; j++ {
			oldIdx := node.EdgeIndex + j
			edge := origEdges[oldIdx]

			for nextSign < signCount && builder.Sign(nextSign).EdgeIndex == oldIdx {
				if !edge.SignRecord {
					logger.Error("sign references an edge without a sign flag",
						slog.String("tile", tileBase.String()),
						slog.Uint64("edge", uint64(oldIdx)))
				}
				builder.SetSignEdgeIndex(nextSign, oldIdx+uint32(added))
				nextSign++
			}
			for nextRestriction < restrictionCount && builder.AccessRestriction(nextRestriction).EdgeIndex == oldIdx {
				if !edge.HasAccessRestrictions {
					logger.Error("access restriction references an edge without a restriction flag",
						slog.String("tile", tileBase.String()),
						slog.Uint64("edge", uint64(oldIdx)))
				}
				builder.SetAccessRestrictionEdgeIndex(nextRestriction, oldIdx+uint32(added))
				nextRestriction++
			}

			newEdges = append(newEdges, edge)
		}

		for connIdx < len(in.conns) && in.conns[connIdx].RoadNode.Index() == uint32(k) {
			conn := in.conns[connIdx]
			connIdx++

			stopFinal := finalStopID(conn.StopSrcID, in.tileNodeCounts)
			if !stopFinal.IsValid() {
				// counted but not materialized, the shift law stays aligned
				// with the connection total
				logger.Error("connection edge to a stop outside the build set",
					slog.String("stop_src", conn.StopSrcID.String()))
				added++
				continue
			}

			roadFinal := tileBase.WithIndex(uint32(k))
			offset, createdEI := builder.AddEdgeInfo(0, roadFinal, stopFinal, conn.Shape, nil)
			newEdges = append(newEdges, datastructure.DirectedEdge{
				EndNode:        stopFinal,
				EdgeInfoOffset: offset,
				LengthM:        conn.LengthM,
				SpeedKmh:       transitConnectionSpeedKmh,
				Use:            datastructure.UseTransitConnection,
				ClassifiedRoad: datastructure.RoadClassServiceOther,
				ForwardAccess:  datastructure.AccessPedestrian,
				ReverseAccess:  datastructure.AccessPedestrian,
				Forward:        createdEI,
			})
			added++
		}

		node.EdgeIndex = newEdgeIndex
		node.EdgeCount = uint32(len(newEdges)) - newEdgeIndex
		newNodes = append(newNodes, node)
	}

	if added != len(in.conns) {
		logger.Error("connection edge count mismatch after road node pass",
			slog.String("tile", tileBase.String()),
			slog.Int("added", added),
			slog.Int("expected", len(in.conns)))
	}

	// transit node pass, stop source order puts stop k at final index
	// k + origNodeCount. Every stop becomes a node even when it has no
	// departures.
	reverseAdded := 0
	recordCache := map[datastructure.GraphId]*transitfeed.Record{}

	for k := uint32(0); int(k) < len(in.stops); k++ {
		stop := &in.stops[k]
		origin := stop.SourceGraphID
		if origin.Index() != k {
			logger.Error("stop array position disagrees with its source id",
				slog.String("stop_src", origin.String()),
				slog.String("stop", stop.OnestopID))
		}

		stopFinal := finalStopID(origin, in.tileNodeCounts)
		stopPos := datastructure.LatLng{Lat: stop.Lat, Lon: stop.Lon}
		newEdgeIndex := uint32(len(newEdges))

		access := datastructure.AccessPedestrian
		if in.stopAccess[origin] {
			access |= datastructure.AccessBicycle
		}

		// reverse connection edges back to the road network
		for i := range in.conns {
			conn := &in.conns[i]
			if conn.StopSrcID != origin {
				continue
			}
			offset, createdEI := builder.AddEdgeInfo(0, stopFinal, conn.RoadNode, conn.Shape, nil)
			newEdges = append(newEdges, datastructure.DirectedEdge{
				EndNode:        conn.RoadNode,
				EdgeInfoOffset: offset,
				LengthM:        conn.LengthM,
				SpeedKmh:       transitConnectionSpeedKmh,
				Use:            datastructure.UseTransitConnection,
				ClassifiedRoad: datastructure.RoadClassServiceOther,
				ForwardAccess:  datastructure.AccessPedestrian,
				ReverseAccess:  datastructure.AccessPedestrian,
				Forward:        createdEI,
			})
			reverseAdded++
		}

		// one directed transit edge per line
		var lines []TransitLine
		if se, ok := in.stopEdges[origin]; ok {
			lines = se.Lines
		}
		for _, line := range lines {
			destFinal := finalStopID(line.DestSrcID, in.tileNodeCounts)
			if !destFinal.IsValid() {
				continue
			}

			destPos, ok := resolveStopPosition(logger, line.DestSrcID, in, recordCache)
			if !ok {
				continue
			}

			use := datastructure.UseRail
			if int(line.RouteIndex) < len(in.vehicleTypes) {
				use = GetTransitUse(in.vehicleTypes[line.RouteIndex])
			}

			// straight line placeholder until shape tables are wired in
			shape := []datastructure.LatLng{stopPos, destPos}
			offset, createdEI := builder.AddEdgeInfo(int64(line.RouteIndex), stopFinal, destFinal, shape, nil)
			newEdges = append(newEdges, datastructure.DirectedEdge{
				EndNode:        destFinal,
				EdgeInfoOffset: offset,
				LengthM:        float32(geo.DistanceMeters(stopPos, destPos)),
				SpeedKmh:       transitEdgeSpeedKmh,
				Use:            use,
				ClassifiedRoad: datastructure.RoadClassServiceOther,
				ForwardAccess:  datastructure.AccessPedestrian,
				ReverseAccess:  datastructure.AccessPedestrian,
				Forward:        createdEI,
				LineID:         line.LineID,
			})
		}

		edgeCount := uint32(len(newEdges)) - newEdgeIndex
		if edgeCount == 0 {
			logger.Error("transit node has no outbound edges",
				slog.String("stop", stop.OnestopID),
				slog.String("stop_src", origin.String()))
		}

		newNodes = append(newNodes, datastructure.NodeInfo{
			LatLng:         stopPos,
			EdgeIndex:      newEdgeIndex,
			EdgeCount:      edgeCount,
			Access:         access,
			Type:           datastructure.NodeTypeMultiUseTransitStop,
			StopIndex:      k,
			TimezoneOffset: builder.AddName(stop.Timezone),
		})
	}

	if reverseAdded != len(in.conns) {
		logger.Error("reverse connection edge count mismatch after transit node pass",
			slog.String("tile", tileBase.String()),
			slog.Int("added", reverseAdded),
			slog.Int("expected", len(in.conns)))
	}

	builder.SetNodes(newNodes)
	builder.SetDirectedEdges(newEdges)
}

// resolveStopPosition finds the destination stop's coordinates, loading the
// destination tile's transit record when the stop lives elsewhere.
func resolveStopPosition(logger *slog.Logger, destSrcID datastructure.GraphId, in *rewriteInput, cache map[datastructure.GraphId]*transitfeed.Record) (datastructure.LatLng, bool) {
	if destSrcID.TileBase() == in.tileBase {
		if int(destSrcID.Index()) >= len(in.stops) {
			logger.Error("destination stop index out of range",
				slog.String("dest_src", destSrcID.String()))
			return datastructure.LatLng{}, false
		}
		s := &in.stops[destSrcID.Index()]
		return datastructure.LatLng{Lat: s.Lat, Lon: s.Lon}, true
	}

	base := destSrcID.TileBase()
	rec, ok := cache[base]
	if !ok {
		var err error
		rec, err = transitfeed.ReadRecord(transitfeed.RecordPath(in.transitDir, base))
		if err != nil {
			logger.Error("cannot load destination transit record",
				slog.String("tile", base.String()),
				slog.String("error", err.Error()))
			cache[base] = nil
			return datastructure.LatLng{}, false
		}
		cache[base] = rec
	}
	if rec == nil || int(destSrcID.Index()) >= len(rec.Stops) {
		return datastructure.LatLng{}, false
	}
	s := &rec.Stops[destSrcID.Index()]
	return datastructure.LatLng{Lat: s.Lat, Lon: s.Lon}, true
}
