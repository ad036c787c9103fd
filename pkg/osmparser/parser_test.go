package osmparser

import (
	"io"
	"log/slog"
	"testing"

	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/logging"
	"lintang/transitx/pkg/tilestore"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHierarchy() *tilestore.TileHierarchy {
	return tilestore.NewTileHierarchy([]tilestore.TileLevel{
		{Level: 0, SizeDeg: 4.0, Name: "highway"},
		{Level: 1, SizeDeg: 1.0, Name: "arterial"},
		{Level: 2, SizeDeg: 0.25, Name: "local"},
	})
}

func TestIsWayUsedByCars(t *testing.T) {
	assert.True(t, isWayUsedByCars(map[string]string{"highway": "residential"}))
	assert.True(t, isWayUsedByCars(map[string]string{"highway": "motorway_link"}))
	assert.True(t, isWayUsedByCars(map[string]string{"junction": "roundabout"}))
	assert.True(t, isWayUsedByCars(map[string]string{"route": "ferry"}))
	assert.True(t, isWayUsedByCars(map[string]string{"highway": "bicycle_road", "motorcar": "yes"}))

	assert.False(t, isWayUsedByCars(map[string]string{"highway": "footway"}))
	assert.False(t, isWayUsedByCars(map[string]string{"highway": "residential", "motorcar": "no"}))
	assert.False(t, isWayUsedByCars(map[string]string{"highway": "residential", "access": "private"}))
	assert.False(t, isWayUsedByCars(map[string]string{"building": "yes"}))
}

func TestParseWayAttrs(t *testing.T) {
	way := &osm.Way{
		ID: 42,
		Tags: osm.Tags{
			{Key: "highway", Value: "primary"},
			{Key: "name", Value: "Jalan Slamet Riyadi"},
			{Key: "maxspeed", Value: "60"},
			{Key: "oneway", Value: "yes"},
			{Key: "destination", Value: "Kartasura"},
		},
	}
	attrs := parseWayAttrs(way)
	assert.Equal(t, "primary", attrs.roadType)
	assert.Equal(t, "Jalan Slamet Riyadi", attrs.name)
	assert.Equal(t, uint32(60), attrs.maxSpeedKmh)
	assert.True(t, attrs.oneWay)
	assert.False(t, attrs.reversed)
	assert.Equal(t, "Kartasura", attrs.destination)

	t.Run("maxspeed falls back to the road type default", func(t *testing.T) {
		way := &osm.Way{Tags: osm.Tags{{Key: "highway", Value: "residential"}, {Key: "maxspeed", Value: "walk"}}}
		assert.Equal(t, datastructure.RoadTypeMaxSpeed("residential"), parseWayAttrs(way).maxSpeedKmh)
	})

	t.Run("reversed oneway", func(t *testing.T) {
		way := &osm.Way{Tags: osm.Tags{{Key: "highway", Value: "residential"}, {Key: "oneway", Value: "-1"}}}
		attrs := parseWayAttrs(way)
		assert.True(t, attrs.oneWay)
		assert.True(t, attrs.reversed)
	})
}

func TestSplitWaySegments(t *testing.T) {
	// way 1: nodes 1-2-3, way 2: nodes 4-2-5, crossing at node 2
	way1 := &osm.Way{
		ID:    1,
		Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}},
		Tags:  osm.Tags{{Key: "highway", Value: "residential"}},
	}
	way2 := &osm.Way{
		ID:    2,
		Nodes: osm.WayNodes{{ID: 4}, {ID: 2}, {ID: 5}},
		Tags:  osm.Tags{{Key: "highway", Value: "residential"}},
	}

	nodeUsage := map[osm.NodeID]int32{}
	for _, way := range []*osm.Way{way1, way2} {
		for i, wn := range way.Nodes {
			nodeUsage[wn.ID]++
			if i == 0 || i == len(way.Nodes)-1 {
				nodeUsage[wn.ID]++
			}
		}
	}

	coords := map[osm.NodeID]datastructure.LatLng{
		1: {Lat: 0.1000, Lon: 0.1000},
		2: {Lat: 0.1000, Lon: 0.1010},
		3: {Lat: 0.1000, Lon: 0.1020},
		4: {Lat: 0.0990, Lon: 0.1010},
		5: {Lat: 0.1010, Lon: 0.1010},
	}

	segments := splitWaySegments([]*osm.Way{way1, way2}, nodeUsage, coords)
	require.Len(t, segments, 4)

	assert.Equal(t, osm.NodeID(1), segments[0].fromOSM)
	assert.Equal(t, osm.NodeID(2), segments[0].toOSM)
	assert.Equal(t, osm.NodeID(2), segments[1].fromOSM)
	assert.Equal(t, osm.NodeID(3), segments[1].toOSM)
	assert.Equal(t, int64(2), segments[2].wayID)
	assert.Len(t, segments[0].shape, 2)

	t.Run("missing node cuts the way", func(t *testing.T) {
		delete(coords, 2)
		cut := splitWaySegments([]*osm.Way{way1}, nodeUsage, coords)
		assert.Empty(t, cut)
	})
}

func TestParserWriteTiles(t *testing.T) {
	logger := logging.New(io.Discard, slog.LevelError)
	tileDir := t.TempDir()
	p := NewParser(testHierarchy(), tileDir, logger)

	way := &osm.Way{
		ID:    42,
		Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}},
		Tags: osm.Tags{
			{Key: "highway", Value: "residential"},
			{Key: "name", Value: "Jalan Slamet Riyadi"},
			{Key: "destination", Value: "Kartasura"},
		},
	}
	nodeUsage := map[osm.NodeID]int32{1: 2, 2: 1, 3: 2}
	coords := map[osm.NodeID]datastructure.LatLng{
		1: {Lat: 0.1000, Lon: 0.1000},
		2: {Lat: 0.1000, Lon: 0.1010},
		3: {Lat: 0.1000, Lon: 0.1020},
	}
	trafficLights := map[osm.NodeID]bool{3: true}

	segments := splitWaySegments([]*osm.Way{way}, nodeUsage, coords)
	require.Len(t, segments, 1)
	require.Len(t, segments[0].shape, 3)

	tiles := p.assembleTiles(segments, coords, trafficLights)
	require.Len(t, tiles, 1)

	written, err := p.writeTiles(tiles)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	store := tilestore.NewTileStore(tileDir, testHierarchy())
	var base datastructure.GraphId
	for b := range tiles {
		base = b
	}
	tile, err := store.GetGraphTile(base)
	require.NoError(t, err)

	nodes := tile.Nodes()
	edges := tile.DirectedEdges()
	require.Len(t, nodes, 2)
	require.Len(t, edges, 2)

	assert.False(t, nodes[0].TrafficLight)
	assert.True(t, nodes[1].TrafficLight)
	assert.Equal(t, uint32(1), nodes[0].EdgeCount)
	assert.Equal(t, uint32(1), nodes[1].EdgeCount)

	fwd, rev := edges[0], edges[1]
	assert.True(t, fwd.Forward)
	assert.False(t, rev.Forward)
	assert.Equal(t, fwd.EdgeInfoOffset, rev.EdgeInfoOffset)
	assert.Equal(t, datastructure.RoadTypeMaxSpeed("residential"), fwd.SpeedKmh)
	assert.InDelta(t, 222.4, float64(fwd.LengthM), 1.5)
	assert.True(t, fwd.SignRecord)
	assert.False(t, rev.SignRecord)

	ei := tile.EdgeInfoAt(fwd.EdgeInfoOffset)
	assert.Equal(t, int64(42), ei.WayID)
	require.Len(t, ei.Shape(), 3)
	require.Len(t, ei.NameOffsets, 1)
	assert.Equal(t, "Jalan Slamet Riyadi", tile.NameAt(ei.NameOffsets[0]))

	require.Len(t, tile.Signs(), 1)
	assert.Equal(t, uint32(0), tile.Signs()[0].EdgeIndex)
	assert.Equal(t, "Kartasura", tile.NameAt(tile.Signs()[0].TextOffset))
}
