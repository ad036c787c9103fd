package transitfeed

import (
	"os"
	"path/filepath"

	"lintang/transitx/domain"
	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/tilestore"

	"github.com/kelindar/binary"
)

// Stop is one transit stop inside a tile's transit record. SourceGraphID is
// the ingest-time id: its index equals the stop's position in the Stops
// slice, the final node id is assigned when the tile is rebuilt.
type Stop struct {
	SourceGraphID datastructure.GraphId
	OnestopID     string
	Name          string
	Lat           float64
	Lon           float64
	OSMWayID      int64
	Timezone      string
}

// Route is one transit route referenced from stop pairs by index.
type Route struct {
	OnestopID       string
	OperatedByID    string
	OperatedByName  string
	Name            string
	ShortName       string
	VehicleType     uint32
	Color           uint32
	TextColor       uint32
}

// StopPair is one scheduled trip segment between two stops. Service dates
// are yyyymmdd integers, times are seconds from midnight.
type StopPair struct {
	OriginGraphID        datastructure.GraphId
	DestinationGraphID   datastructure.GraphId
	TripID               uint32
	RouteIndex           uint32
	BlockID              uint32
	ShapeID              uint32
	OriginDepartureTime  uint32
	DestinationArrival   uint32
	ServiceStartDate     uint32
	ServiceEndDate       uint32
	DOW                  []bool // Monday first, length 7
	ServiceAddedDates    []uint32
	ServiceExceptDates   []uint32
	TripHeadsign         string
	WheelchairAccessible bool
	BikesAllowed         bool
}

// Record is the per-tile transit input produced by the feed ingest pipeline.
type Record struct {
	GraphID   datastructure.GraphId
	Stops     []Stop
	Routes    []Route
	StopPairs []StopPair
}

// RecordPath is the record location below transitDir for a tile base id.
func RecordPath(transitDir string, base datastructure.GraphId) string {
	return filepath.Join(transitDir, tilestore.FileSuffix(base.TileBase(), ".pbf"))
}

func ReadRecord(path string) (*Record, error) {
	bb, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrNotFound, "transitfeed.ReadRecord %s", path)
	}
	raw, err := tilestore.Decompress(bb)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrDeserialize, "transitfeed.ReadRecord decompress %s", path)
	}
	var r Record
	if err := binary.Unmarshal(raw, &r); err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrDeserialize, "transitfeed.ReadRecord unmarshal %s", path)
	}
	return &r, nil
}

func (r *Record) Write(path string) error {
	encoded, err := binary.Marshal(r)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrBadFeedData, "transitfeed.Write marshal %s", path)
	}
	bb, err := tilestore.Compress(encoded)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrBadFeedData, "transitfeed.Write compress %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.WrapErrorf(err, domain.ErrBadFeedData, "transitfeed.Write mkdir %s", path)
	}
	if err := os.WriteFile(path, bb, 0o644); err != nil {
		return domain.WrapErrorf(err, domain.ErrBadFeedData, "transitfeed.Write %s", path)
	}
	return nil
}
