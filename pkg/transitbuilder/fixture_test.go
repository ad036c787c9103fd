package transitbuilder

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/logging"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/transitfeed"
	"lintang/transitx/pkg/util"

	"github.com/stretchr/testify/require"
)

// fixture geometry: one east-west road segment near the equator, two stops
// tagged onto its OSM way. Distances stay small so lengths are predictable.
var (
	nodeAPos = datastructure.LatLng{Lat: 0.1000, Lon: 0.1000}
	nodeBPos = datastructure.LatLng{Lat: 0.1000, Lon: 0.1020}
	stop0Pos = datastructure.LatLng{Lat: 0.10005, Lon: 0.1004}
	stop1Pos = datastructure.LatLng{Lat: 0.10005, Lon: 0.1016}
)

const fixtureWayID = int64(42)

func testLogger() *slog.Logger {
	return logging.New(io.Discard, slog.LevelError)
}

func testHierarchy() *tilestore.TileHierarchy {
	return tilestore.NewTileHierarchy([]tilestore.TileLevel{
		{Level: 0, SizeDeg: 4.0, Name: "highway"},
		{Level: 1, SizeDeg: 1.0, Name: "arterial"},
		{Level: 2, SizeDeg: 0.25, Name: "local"},
	})
}

func fixtureBase(t *testing.T) datastructure.GraphId {
	t.Helper()
	h := testHierarchy()
	tileID := h.GetTileID(nodeAPos.Lat, nodeAPos.Lon, 2)
	return datastructure.NewGraphId(tileID, 2, 0)
}

// writeRoadTile builds the two-node road tile: A and B joined by way 42, one
// edge info shared by both directions, a sign record on the B side edge.
func writeRoadTile(t *testing.T, tileDir string, base datastructure.GraphId) {
	t.Helper()

	path := filepath.Join(tileDir, tilestore.FileSuffix(base, ".gph"))
	b := tilestore.NewGraphTileBuilder(path, base, util.DaysFromPivot(ref))

	nodeAID := base.WithIndex(0)
	nodeBID := base.WithIndex(1)
	shape := []datastructure.LatLng{nodeAPos, nodeBPos}

	offset, created := b.AddEdgeInfo(fixtureWayID, nodeAID, nodeBID, shape, []string{"Jalan Slamet Riyadi"})
	require.True(t, created)

	edges := []datastructure.DirectedEdge{
		{
			EndNode:        nodeBID,
			EdgeInfoOffset: offset,
			LengthM:        222.4,
			SpeedKmh:       40,
			Use:            datastructure.UseRoad,
			ClassifiedRoad: datastructure.RoadClassResidential,
			ForwardAccess:  datastructure.AccessAll,
			ReverseAccess:  datastructure.AccessAll,
			Forward:        true,
		},
		{
			EndNode:        nodeAID,
			EdgeInfoOffset: offset,
			LengthM:        222.4,
			SpeedKmh:       40,
			Use:            datastructure.UseRoad,
			ClassifiedRoad: datastructure.RoadClassResidential,
			ForwardAccess:  datastructure.AccessAll,
			ReverseAccess:  datastructure.AccessAll,
			Forward:        false,
			SignRecord:     true,
		},
	}
	nodes := []datastructure.NodeInfo{
		{LatLng: nodeAPos, EdgeIndex: 0, EdgeCount: 1, Access: datastructure.AccessAll},
		{LatLng: nodeBPos, EdgeIndex: 1, EdgeCount: 1, Access: datastructure.AccessAll},
	}
	b.SetNodes(nodes)
	b.SetDirectedEdges(edges)
	b.AddSign(datastructure.Sign{EdgeIndex: 1, Type: datastructure.SignDestination, TextOffset: b.AddName("Kartasura")})

	require.NoError(t, b.StoreTileData())
}

// fixtureRecord describes both stops on way 42 and one weekday bus trip from
// stop 0 to stop 1.
func fixtureRecord(base datastructure.GraphId) *transitfeed.Record {
	return &transitfeed.Record{
		GraphID: base,
		Stops: []transitfeed.Stop{
			{
				SourceGraphID: base.WithIndex(0),
				OnestopID:     "s-qqxv4-purwosari",
				Name:          "Purwosari",
				Lat:           stop0Pos.Lat,
				Lon:           stop0Pos.Lon,
				OSMWayID:      fixtureWayID,
				Timezone:      "Asia/Jakarta",
			},
			{
				SourceGraphID: base.WithIndex(1),
				OnestopID:     "s-qqxv5-gendengan",
				Name:          "Gendengan",
				Lat:           stop1Pos.Lat,
				Lon:           stop1Pos.Lon,
				OSMWayID:      fixtureWayID,
				Timezone:      "Asia/Jakarta",
			},
		},
		Routes: []transitfeed.Route{
			{
				OnestopID:      "r-qqxv-bst1",
				OperatedByID:   "o-qqxv-batiksolotrans",
				OperatedByName: "Batik Solo Trans",
				Name:           "Koridor 1",
				ShortName:      "BST1",
				VehicleType:    3,
			},
		},
		StopPairs: []transitfeed.StopPair{
			{
				OriginGraphID:       base.WithIndex(0),
				DestinationGraphID:  base.WithIndex(1),
				TripID:              7,
				RouteIndex:          0,
				BlockID:             3,
				ShapeID:             11,
				OriginDepartureTime: 28800,
				DestinationArrival:  29100,
				ServiceStartDate:    20250101,
				ServiceEndDate:      20250331,
				DOW:                 []bool{true, true, true, true, true, false, false},
				TripHeadsign:        "Palur",
				BikesAllowed:        true,
			},
		},
	}
}

func writeFixtureRecord(t *testing.T, transitDir string, rec *transitfeed.Record) {
	t.Helper()
	require.NoError(t, rec.Write(transitfeed.RecordPath(transitDir, rec.GraphID)))
}
