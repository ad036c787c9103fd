package transitbuilder

import (
	"log/slog"
	"math"

	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/geo"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/transitfeed"
	"lintang/transitx/pkg/util"

	"golang.org/x/exp/slices"
)

// ConnectionEdge is a pedestrian link between a road node and a transit
// stop, materialized in both directions during the rewrite.
type ConnectionEdge struct {
	RoadNode  datastructure.GraphId
	StopSrcID datastructure.GraphId
	LengthM   float32
	Shape     []datastructure.LatLng
}

const minConnectionLengthM = 1.0

// AddOSMConnection snaps one stop onto the closest edge of its tagged OSM
// way inside the road tile and appends the resulting connection edges.
// Reports false for orphaned stops.
func AddOSMConnection(logger *slog.Logger, stop *transitfeed.Stop, tile *tilestore.GraphTile, conns *[]ConnectionEdge) bool {
	stopPos := datastructure.LatLng{Lat: stop.Lat, Lon: stop.Lon}
	tileBase := tile.Header().GraphID.TileBase()

	bestDist := math.MaxFloat64
	var bestShape []datastructure.LatLng
	var bestPoint datastructure.LatLng
	bestSegment := -1
	var startNode, endNode datastructure.GraphId
	found := false

	nodes := tile.Nodes()
	edges := tile.DirectedEdges()
	for k := range nodes {
		node := &nodes[k]
		for j := uint32(0); j < node.EdgeCount; j++ {
			edge := &edges[node.EdgeIndex+j]
			ei := tile.EdgeInfoAt(edge.EdgeInfoOffset)
			if ei.WayID != stop.OSMWayID {
				continue
			}

			shape := ei.Shape()
			if !edge.Forward {
				shape = append([]datastructure.LatLng(nil), shape...)
				util.ReverseG(shape)
			}

			point, dist, segment := geo.ClosestPointOnPolyline(stopPos, shape)
			if segment < 0 || dist >= bestDist {
				continue
			}
			bestDist = dist
			bestShape = shape
			bestPoint = point
			bestSegment = segment
			startNode = tileBase.WithIndex(uint32(k))
			endNode = edge.EndNode
			found = true
		}
	}

	if !found {
		logger.Error("stop has no connecting way in tile",
			slog.String("stop", stop.OnestopID),
			slog.Int64("way_id", stop.OSMWayID),
			slog.String("tile", tileBase.String()))
		return false
	}

	edgeLength := geo.PolylineLengthMeters(bestShape)
	prefixLength := 0.0
	suffixLength := 0.0

	// prefix connection from the segment's start node
	if stop.SourceGraphID.TileBase() == startNode.TileBase() {
		shape := append([]datastructure.LatLng(nil), bestShape[:bestSegment+1]...)
		shape = append(shape, bestPoint, stopPos)
		prefixLength = math.Max(geo.PolylineLengthMeters(shape), minConnectionLengthM)
		*conns = append(*conns, ConnectionEdge{
			RoadNode:  startNode,
			StopSrcID: stop.SourceGraphID,
			LengthM:   float32(prefixLength),
			Shape:     shape,
		})
	}

	// suffix connection from the end node, only when both bounding nodes
	// live in this tile
	if stop.SourceGraphID.TileBase() == endNode.TileBase() && startNode.TileBase() == endNode.TileBase() {
		shape := append([]datastructure.LatLng(nil), bestShape[bestSegment+1:]...)
		util.ReverseG(shape)
		shape = append(shape, bestPoint, stopPos)
		suffixLength = math.Max(geo.PolylineLengthMeters(shape), minConnectionLengthM)
		*conns = append(*conns, ConnectionEdge{
			RoadNode:  endNode,
			StopSrcID: stop.SourceGraphID,
			LengthM:   float32(suffixLength),
			Shape:     shape,
		})
	}

	// the sum check only holds when the stop got both connections
	if prefixLength != 0 && suffixLength != 0 && prefixLength+suffixLength < edgeLength-1.0 {
		logger.Error("connection lengths shorter than the snapped edge",
			slog.String("stop", stop.OnestopID),
			slog.Float64("total_m", util.RoundFloat(prefixLength+suffixLength, 2)),
			slog.Float64("edge_m", util.RoundFloat(edgeLength, 2)))
	}

	return true
}

// SortConnectionEdges orders connections for the streaming interleave of the
// tile rewrite.
func SortConnectionEdges(conns []ConnectionEdge) {
	slices.SortFunc(conns, func(a, b ConnectionEdge) int {
		if a.RoadNode.TileID() != b.RoadNode.TileID() {
			return int(a.RoadNode.TileID()) - int(b.RoadNode.TileID())
		}
		return int(a.RoadNode.Index()) - int(b.RoadNode.Index())
	})
}
