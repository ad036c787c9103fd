package transitbuilder

import (
	"log/slog"
	"time"

	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/transitfeed"
)

// Departure is one scheduled trip segment leaving an origin stop, service
// window already folded into the 64-day bitmap.
type Departure struct {
	Days                 uint64
	OriginSrcID          datastructure.GraphId
	DestSrcID            datastructure.GraphId
	TripID               uint32
	RouteIndex           uint32
	BlockID              uint32
	ShapeID              uint32
	DepTime              uint32
	ArrTime              uint32
	EndDay               uint32
	DOWMask              uint32
	WheelchairAccessible bool
	BikesAllowed         bool
	Headsign             string
	ShortName            string
}

// ProcessStopPairs walks the tile's stop pairs and groups surviving
// departures by origin stop source id. Per-stop access collects the OR of
// every pair's bikes_allowed flag. rejected counts pairs whose service
// window misses the 64-day span at refDate.
func ProcessStopPairs(logger *slog.Logger, record *transitfeed.Record, refDate time.Time) (map[datastructure.GraphId][]Departure, map[datastructure.GraphId]bool, int, error) {
	departures := map[datastructure.GraphId][]Departure{}
	stopAccess := map[datastructure.GraphId]bool{}
	rejected := 0

	if len(record.StopPairs) == 0 {
		if len(record.Stops) > 0 {
			logger.Warn("tile has 0 schedule stop pairs but has stops",
				slog.String("tile", record.GraphID.String()),
				slog.Int("stops", len(record.Stops)))
		}
		return departures, stopAccess, 0, nil
	}

	for i := range record.StopPairs {
		sp := &record.StopPairs[i]

		start, err := ParseFeedDate(sp.ServiceStartDate)
		if err != nil {
			return nil, nil, rejected, err
		}
		end, err := ParseFeedDate(sp.ServiceEndDate)
		if err != nil {
			return nil, nil, rejected, err
		}

		mask := DOWMask(sp.DOW)
		days := ServiceDays(start, end, refDate, mask)
		if days == 0 {
			logger.Warn("feed rejected",
				slog.String("tile", record.GraphID.String()),
				slog.Uint64("trip", uint64(sp.TripID)),
				slog.Uint64("start", uint64(sp.ServiceStartDate)),
				slog.Uint64("end", uint64(sp.ServiceEndDate)))
			rejected++
			continue
		}

		for _, except := range sp.ServiceExceptDates {
			date, err := ParseFeedDate(except)
			if err != nil {
				return nil, nil, rejected, err
			}
			days = RemoveServiceDay(days, start, end, refDate, date)
		}
		for _, addDate := range sp.ServiceAddedDates {
			date, err := ParseFeedDate(addDate)
			if err != nil {
				return nil, nil, rejected, err
			}
			days = AddServiceDay(days, start, end, refDate, date)
		}

		shortName := ""
		if int(sp.RouteIndex) < len(record.Routes) {
			shortName = record.Routes[sp.RouteIndex].ShortName
		}

		dep := Departure{
			Days:                 days,
			OriginSrcID:          sp.OriginGraphID,
			DestSrcID:            sp.DestinationGraphID,
			TripID:               sp.TripID,
			RouteIndex:           sp.RouteIndex,
			BlockID:              sp.BlockID,
			ShapeID:              sp.ShapeID,
			DepTime:              sp.OriginDepartureTime,
			ArrTime:              sp.DestinationArrival,
			EndDay:               EndDay(start, end),
			DOWMask:              mask,
			WheelchairAccessible: sp.WheelchairAccessible,
			BikesAllowed:         sp.BikesAllowed,
			Headsign:             sp.TripHeadsign,
			ShortName:            shortName,
		}
		departures[sp.OriginGraphID] = append(departures[sp.OriginGraphID], dep)

		stopAccess[sp.OriginGraphID] = stopAccess[sp.OriginGraphID] || sp.BikesAllowed
		stopAccess[sp.DestinationGraphID] = stopAccess[sp.DestinationGraphID] || sp.BikesAllowed
	}

	return departures, stopAccess, rejected, nil
}
