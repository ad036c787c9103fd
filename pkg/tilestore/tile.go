package tilestore

import (
	"lintang/transitx/pkg/datastructure"
)

type TileHeader struct {
	GraphID                datastructure.GraphId
	DateCreated            uint32 // days since the pivot date
	NodeCount              uint32
	DirectedEdgeCount      uint32
	SignCount              uint32
	AccessRestrictionCount uint32
	TransitRouteCount      uint32
	TransitStopCount       uint32
	TransitDepartureCount  uint32
}

// tileData is the serialized form of one graph tile. Field order is the
// on-disk record order.
type tileData struct {
	Header             TileHeader
	Nodes              []datastructure.NodeInfo
	DirectedEdges      []datastructure.DirectedEdge
	EdgeInfos          []datastructure.EdgeInfo
	Names              []string
	Signs              []datastructure.Sign
	AccessRestrictions []datastructure.AccessRestriction
	TransitRoutes      []datastructure.TransitRoute
	TransitStops       []datastructure.TransitStop
	TransitDepartures  []datastructure.TransitDeparture
}

// GraphTile is a read-only view over a decoded tile.
type GraphTile struct {
	data      *tileData
	sizeBytes int64
}

func (t *GraphTile) Header() TileHeader {
	return t.data.Header
}

func (t *GraphTile) Nodes() []datastructure.NodeInfo {
	return t.data.Nodes
}

func (t *GraphTile) Node(i uint32) *datastructure.NodeInfo {
	return &t.data.Nodes[i]
}

func (t *GraphTile) DirectedEdges() []datastructure.DirectedEdge {
	return t.data.DirectedEdges
}

func (t *GraphTile) EdgeInfoAt(offset uint32) *datastructure.EdgeInfo {
	return &t.data.EdgeInfos[offset]
}

func (t *GraphTile) NameAt(offset uint32) string {
	if int(offset) >= len(t.data.Names) {
		return ""
	}
	return t.data.Names[offset]
}

func (t *GraphTile) Signs() []datastructure.Sign {
	return t.data.Signs
}

func (t *GraphTile) AccessRestrictions() []datastructure.AccessRestriction {
	return t.data.AccessRestrictions
}

func (t *GraphTile) TransitStops() []datastructure.TransitStop {
	return t.data.TransitStops
}

func (t *GraphTile) TransitRoutes() []datastructure.TransitRoute {
	return t.data.TransitRoutes
}

func (t *GraphTile) TransitDepartures() []datastructure.TransitDeparture {
	return t.data.TransitDepartures
}

func (t *GraphTile) SizeBytes() int64 {
	return t.sizeBytes
}
