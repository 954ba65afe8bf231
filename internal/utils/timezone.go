package utils

import (
	"time"
	_ "time/tzdata"
)

// InTimezone returns t in the named IANA zone, or in UTC when the zone is
// unknown.
func InTimezone(t time.Time, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}
	return t.In(loc)
}

// DateInTimezone is the calendar date of t in tz, as YYYY-MM-DD.
func DateInTimezone(t time.Time, tz string) string {
	return InTimezone(t, tz).Format("2006-01-02")
}
