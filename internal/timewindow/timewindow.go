// Package timewindow holds the interval arithmetic used by reservation
// conflict checks. Windows are half-open [start, end): a reservation ending
// at 14:00 does not collide with one starting at 14:00.
package timewindow

import "time"

// DefaultServiceDuration is how long a reservation occupies a table when no
// explicit end is supplied.
const DefaultServiceDuration = 2 * time.Hour

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DeriveEnd returns the end of a service window starting at start.
// A non-positive duration falls back to DefaultServiceDuration.
func DeriveEnd(start time.Time, duration time.Duration) time.Time {
	if duration <= 0 {
		duration = DefaultServiceDuration
	}
	return start.Add(duration)
}
