package transitbuilder

import (
	"testing"

	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/transitfeed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtureTile(t *testing.T) (*tilestore.GraphTile, datastructure.GraphId) {
	t.Helper()
	base := fixtureBase(t)
	tileDir := t.TempDir()
	writeRoadTile(t, tileDir, base)

	store := tilestore.NewTileStore(tileDir, testHierarchy())
	tile, err := store.GetGraphTile(base)
	require.NoError(t, err)
	return tile, base
}

func TestAddOSMConnection(t *testing.T) {
	tile, base := loadFixtureTile(t)
	logger := testLogger()

	t.Run("stop between the bounding nodes gets two connections", func(t *testing.T) {
		stop := &transitfeed.Stop{
			SourceGraphID: base.WithIndex(0),
			OnestopID:     "s-qqxv4-purwosari",
			Lat:           stop0Pos.Lat,
			Lon:           stop0Pos.Lon,
			OSMWayID:      fixtureWayID,
		}

		var conns []ConnectionEdge
		require.True(t, AddOSMConnection(logger, stop, tile, &conns))
		require.Len(t, conns, 2)

		prefix, suffix := conns[0], conns[1]
		assert.Equal(t, uint32(0), prefix.RoadNode.Index())
		assert.Equal(t, uint32(1), suffix.RoadNode.Index())
		assert.Equal(t, stop.SourceGraphID, prefix.StopSrcID)
		assert.Equal(t, stop.SourceGraphID, suffix.StopSrcID)

		// 44.5 m along the way plus 5.6 m perpendicular, and the rest of the
		// segment on the suffix side
		assert.InDelta(t, 50.0, float64(prefix.LengthM), 1.5)
		assert.InDelta(t, 183.5, float64(suffix.LengthM), 1.5)

		// both connection shapes terminate at the stop
		assert.Equal(t, stop0Pos, prefix.Shape[len(prefix.Shape)-1])
		assert.Equal(t, stop0Pos, suffix.Shape[len(suffix.Shape)-1])
		assert.Equal(t, nodeAPos, prefix.Shape[0])
		assert.Equal(t, nodeBPos, suffix.Shape[0])
	})

	t.Run("stop at a node floors the short side to one meter", func(t *testing.T) {
		stop := &transitfeed.Stop{
			SourceGraphID: base.WithIndex(0),
			OnestopID:     "s-qqxv4-balapan",
			Lat:           nodeAPos.Lat,
			Lon:           nodeAPos.Lon,
			OSMWayID:      fixtureWayID,
		}

		var conns []ConnectionEdge
		require.True(t, AddOSMConnection(logger, stop, tile, &conns))
		require.Len(t, conns, 2)
		assert.Equal(t, float32(minConnectionLengthM), conns[0].LengthM)
		assert.InDelta(t, 222.4, float64(conns[1].LengthM), 1.5)
	})

	t.Run("unknown way orphans the stop", func(t *testing.T) {
		stop := &transitfeed.Stop{
			SourceGraphID: base.WithIndex(0),
			OnestopID:     "s-qqxv4-lost",
			Lat:           stop0Pos.Lat,
			Lon:           stop0Pos.Lon,
			OSMWayID:      99,
		}

		var conns []ConnectionEdge
		assert.False(t, AddOSMConnection(logger, stop, tile, &conns))
		assert.Empty(t, conns)
	})
}

func TestSortConnectionEdges(t *testing.T) {
	base := fixtureBase(t)
	conns := []ConnectionEdge{
		{RoadNode: base.WithIndex(5)},
		{RoadNode: base.WithIndex(0)},
		{RoadNode: base.WithIndex(2)},
	}
	SortConnectionEdges(conns)
	assert.Equal(t, uint32(0), conns[0].RoadNode.Index())
	assert.Equal(t, uint32(2), conns[1].RoadNode.Index())
	assert.Equal(t, uint32(5), conns[2].RoadNode.Index())
}
