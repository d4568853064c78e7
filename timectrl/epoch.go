// Package timectrl converts between wall-clock time and the GPS-seconds
// time base the scanner's reference, start, and observation-span values are
// expressed in. It is deliberately free of goroutines or timers: the
// scanner runs single-threaded with no internal suspension points, so there
// is nothing here to drive on a ticker.
package timectrl

import "time"

// gpsEpoch is the GPS time epoch, 1980-01-06T00:00:00 UTC.
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// GPSSeconds returns t expressed as seconds since the GPS epoch.
func GPSSeconds(t time.Time) float64 {
	return t.Sub(gpsEpoch).Seconds()
}

// TimeFromGPSSeconds is the inverse of GPSSeconds.
func TimeFromGPSSeconds(gps float64) time.Time {
	return gpsEpoch.Add(time.Duration(gps * float64(time.Second)))
}

// Span returns the observation span, in seconds, between start and end.
func Span(start, end time.Time) float64 {
	return end.Sub(start).Seconds()
}
