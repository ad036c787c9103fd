package tilestore

import (
	"os"
	"path/filepath"

	"lintang/transitx/domain"
	"lintang/transitx/pkg/datastructure"
)

type edgeInfoKey struct {
	wayID int64
	a     datastructure.GraphId
	b     datastructure.GraphId
}

func newEdgeInfoKey(wayID int64, from, to datastructure.GraphId) edgeInfoKey {
	// unordered pair, both directions of a segment share one edge info
	if to < from {
		from, to = to, from
	}
	return edgeInfoKey{wayID: wayID, a: from, b: to}
}

// GraphTileBuilder mutates one tile and writes it back in place. Open with
// TileStore.OpenBuilder for an existing tile or NewGraphTileBuilder for a
// fresh one.
type GraphTileBuilder struct {
	path string
	data *tileData

	nameIndex     map[string]uint32
	edgeInfoIndex map[edgeInfoKey]uint32
}

func NewGraphTileBuilder(path string, base datastructure.GraphId, dateCreated uint32) *GraphTileBuilder {
	b := &GraphTileBuilder{
		path: path,
		data: &tileData{
			Header: TileHeader{
				GraphID:     base.TileBase(),
				DateCreated: dateCreated,
			},
		},
		nameIndex:     map[string]uint32{},
		edgeInfoIndex: map[edgeInfoKey]uint32{},
	}
	// the empty street name always sits at offset 0
	b.AddName("")
	return b
}

func newBuilderFromData(path string, td *tileData) *GraphTileBuilder {
	b := &GraphTileBuilder{
		path:          path,
		data:          td,
		nameIndex:     make(map[string]uint32, len(td.Names)),
		edgeInfoIndex: make(map[edgeInfoKey]uint32, len(td.EdgeInfos)),
	}
	for i, name := range td.Names {
		if _, ok := b.nameIndex[name]; !ok {
			b.nameIndex[name] = uint32(i)
		}
	}
	// edge infos already in the tile keep their offsets untouched, the dedup
	// index only has to cover records added during this rewrite
	return b
}

func (b *GraphTileBuilder) Header() *TileHeader {
	return &b.data.Header
}

func (b *GraphTileBuilder) Nodes() []datastructure.NodeInfo {
	return b.data.Nodes
}

func (b *GraphTileBuilder) SetNodes(nodes []datastructure.NodeInfo) {
	b.data.Nodes = nodes
}

func (b *GraphTileBuilder) DirectedEdges() []datastructure.DirectedEdge {
	return b.data.DirectedEdges
}

func (b *GraphTileBuilder) SetDirectedEdges(edges []datastructure.DirectedEdge) {
	b.data.DirectedEdges = edges
}

func (b *GraphTileBuilder) EdgeInfoAt(offset uint32) *datastructure.EdgeInfo {
	return &b.data.EdgeInfos[offset]
}

func (b *GraphTileBuilder) Sign(i int) datastructure.Sign {
	return b.data.Signs[i]
}

func (b *GraphTileBuilder) SignCount() int {
	return len(b.data.Signs)
}

func (b *GraphTileBuilder) SetSignEdgeIndex(i int, edgeIndex uint32) {
	b.data.Signs[i].EdgeIndex = edgeIndex
}

func (b *GraphTileBuilder) AddSign(s datastructure.Sign) {
	b.data.Signs = append(b.data.Signs, s)
}

func (b *GraphTileBuilder) AccessRestriction(i int) datastructure.AccessRestriction {
	return b.data.AccessRestrictions[i]
}

func (b *GraphTileBuilder) AccessRestrictionCount() int {
	return len(b.data.AccessRestrictions)
}

func (b *GraphTileBuilder) SetAccessRestrictionEdgeIndex(i int, edgeIndex uint32) {
	b.data.AccessRestrictions[i].EdgeIndex = edgeIndex
}

func (b *GraphTileBuilder) AddAccessRestriction(r datastructure.AccessRestriction) {
	b.data.AccessRestrictions = append(b.data.AccessRestrictions, r)
}

// AddName interns s into the tile name list and returns its offset.
func (b *GraphTileBuilder) AddName(s string) uint32 {
	if off, ok := b.nameIndex[s]; ok {
		return off
	}
	off := uint32(len(b.data.Names))
	b.data.Names = append(b.data.Names, s)
	b.nameIndex[s] = off
	return off
}

// AddEdgeInfo interns the shared segment record for (wayID, from, to). The
// bool reports whether a new record was created; the second direction of a
// segment gets added == false and must flip its forward flag.
func (b *GraphTileBuilder) AddEdgeInfo(wayID int64, from, to datastructure.GraphId, shape []datastructure.LatLng, names []string) (uint32, bool) {
	key := newEdgeInfoKey(wayID, from, to)
	if off, ok := b.edgeInfoIndex[key]; ok {
		return off, false
	}

	ei := datastructure.EdgeInfo{WayID: wayID}
	ei.SetShape(shape)
	for _, name := range names {
		if name == "" {
			continue
		}
		ei.NameOffsets = append(ei.NameOffsets, b.AddName(name))
	}

	off := uint32(len(b.data.EdgeInfos))
	b.data.EdgeInfos = append(b.data.EdgeInfos, ei)
	b.edgeInfoIndex[key] = off
	return off, true
}

func (b *GraphTileBuilder) AddTransitRoute(r datastructure.TransitRoute) uint32 {
	b.data.TransitRoutes = append(b.data.TransitRoutes, r)
	return uint32(len(b.data.TransitRoutes) - 1)
}

func (b *GraphTileBuilder) AddTransitStop(s datastructure.TransitStop) uint32 {
	b.data.TransitStops = append(b.data.TransitStops, s)
	return uint32(len(b.data.TransitStops) - 1)
}

func (b *GraphTileBuilder) AddTransitDeparture(d datastructure.TransitDeparture) {
	b.data.TransitDepartures = append(b.data.TransitDepartures, d)
}

// StoreTileData refreshes the header counts and writes the tile back to its
// path atomically.
func (b *GraphTileBuilder) StoreTileData() error {
	h := &b.data.Header
	h.NodeCount = uint32(len(b.data.Nodes))
	h.DirectedEdgeCount = uint32(len(b.data.DirectedEdges))
	h.SignCount = uint32(len(b.data.Signs))
	h.AccessRestrictionCount = uint32(len(b.data.AccessRestrictions))
	h.TransitRouteCount = uint32(len(b.data.TransitRoutes))
	h.TransitStopCount = uint32(len(b.data.TransitStops))
	h.TransitDepartureCount = uint32(len(b.data.TransitDepartures))

	bb, err := encodeTile(b.data)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrInconsistentTile, "tilestore.StoreTileData encode %s", b.data.Header.GraphID)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return domain.WrapErrorf(err, domain.ErrInconsistentTile, "tilestore.StoreTileData mkdir %s", b.path)
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, bb, 0o644); err != nil {
		return domain.WrapErrorf(err, domain.ErrInconsistentTile, "tilestore.StoreTileData write %s", tmp)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return domain.WrapErrorf(err, domain.ErrInconsistentTile, "tilestore.StoreTileData rename %s", b.path)
	}
	return nil
}
