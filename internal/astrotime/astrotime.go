// Package astrotime converts between Modified Julian Dates and Go time values.
//
// All request validity windows and schedule rows carry times as MJD floats,
// so every other package funnels its time arithmetic through here.
package astrotime

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
)

// mjdOffset is the Julian Date of the Modified Julian Date epoch
// (1858-11-17 00:00 UTC).
const mjdOffset = 2400000.5

// isoLayout matches the UTC timestamp format used in visibility messages.
const isoLayout = "2006-01-02T15:04:05.000"

// MJDToJD converts a Modified Julian Date to a Julian Date.
func MJDToJD(mjd float64) float64 {
	return mjd + mjdOffset
}

// JDToMJD converts a Julian Date to a Modified Julian Date.
func JDToMJD(jd float64) float64 {
	return jd - mjdOffset
}

// MJDToTime converts a Modified Julian Date to a UTC time.Time.
func MJDToTime(mjd float64) time.Time {
	return julian.JDToTime(MJDToJD(mjd)).UTC()
}

// TimeToMJD converts a time.Time to a Modified Julian Date.
func TimeToMJD(t time.Time) float64 {
	return JDToMJD(julian.TimeToJD(t))
}

// MJDFromDate returns the MJD of midnight UTC on the given calendar date.
func MJDFromDate(year int, month time.Month, day int) float64 {
	return JDToMJD(julian.CalendarGregorianToJD(year, int(month), float64(day)))
}

// NowMJD returns the current time as a Modified Julian Date.
func NowMJD() float64 {
	return TimeToMJD(time.Now())
}

// FormatUTC renders an MJD as an ISO-8601 UTC timestamp with millisecond
// precision, e.g. "2030-09-02T03:12:45.123".
func FormatUTC(mjd float64) string {
	return MJDToTime(mjd).Format(isoLayout)
}

// MeanSiderealRad returns Greenwich mean sidereal time in radians for the
// given UTC time.
func MeanSiderealRad(t time.Time) float64 {
	return sidereal.Mean(julian.TimeToJD(t.UTC())).Rad()
}
