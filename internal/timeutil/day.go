// Package timeutil provides the day-partition and microsecond-timestamp
// arithmetic the archive connector needs to turn a time range into the
// calendar days the underlying tables are partitioned by.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const dayFormat = "2006-01-02"

// Days returns the inclusive sequence of YYYY-MM-DD period strings covering
// [t0, t1] in zone. Both bounds are converted to zone before the calendar
// day is derived, since a timestamp near midnight can fall on different
// days depending on the zone it's read in.
func Days(t0, t1 time.Time, zone *time.Location) []string {
	if zone == nil {
		zone = time.UTC
	}
	start := floorDay(t0.In(zone), zone)
	end := floorDay(t1.In(zone), zone)

	var periods []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		periods = append(periods, d.Format(dayFormat))
	}
	return periods
}

func floorDay(t time.Time, zone *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, zone)
}

// TodayPeriod returns the current calendar day in zone, formatted the same
// way as Days, so it can be compared directly against a period string.
func TodayPeriod(zone *time.Location) string {
	if zone == nil {
		zone = time.UTC
	}
	return time.Now().In(zone).Format(dayFormat)
}

// SplitAttr splits a fully qualified attribute name
// "cs/domain/family/member/attr" into its control-system prefix and the
// remaining "domain/family/member/attr" suffix. The split happens on the
// last four '/' characters rather than the first, since a control system
// name may itself contain '/'.
func SplitAttr(full string) (cs string, name string, err error) {
	idx := len(full)
	for i := 0; i < 4; i++ {
		last := strings.LastIndexByte(full[:idx], '/')
		if last < 0 {
			return "", "", fmt.Errorf("timeutil: attribute %q is not of the form cs/domain/family/member/attr", full)
		}
		idx = last
	}
	return full[:idx], full[idx+1:], nil
}
