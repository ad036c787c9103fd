package util

import "time"

// PivotDate anchors all day counts stored in tile headers and service-day
// bitmaps.
var PivotDate = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)

func DaysFromPivot(t time.Time) uint32 {
	d := t.UTC().Sub(PivotDate).Hours() / 24
	if d < 0 {
		return 0
	}
	return uint32(d)
}

func DateFromPivotDays(days uint32) time.Time {
	return PivotDate.AddDate(0, 0, int(days))
}
