package astrotime

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// TestMJDConversions verifies MJD round trips against known epochs.
func TestMJDConversions(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		mjd  float64
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			mjd:  51544.5,
		},
		{
			name: "Unix epoch",
			time: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			mjd:  40587.0,
		},
		{
			name: "MJD epoch",
			time: time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC),
			mjd:  0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeToMJD(tt.time)
			if diff := math.Abs(got - tt.mjd); diff > 1e-8 {
				t.Errorf("TimeToMJD(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.mjd, diff)
			}

			back := MJDToTime(tt.mjd)
			if d := back.Sub(tt.time); d < -time.Millisecond || d > time.Millisecond {
				t.Errorf("MJDToTime(%.4f) = %v, want %v", tt.mjd, back, tt.time)
			}
		})
	}
}

func TestMJDFromDate(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
		want  float64
	}{
		{2021, time.January, 1, 59215.0},
		{2000, time.January, 1, 51544.0},
		{1970, time.January, 1, 40587.0},
	}

	for _, tt := range tests {
		got := MJDFromDate(tt.year, tt.month, tt.day)
		if got != tt.want {
			t.Errorf("MJDFromDate(%d, %v, %d) = %.4f, want %.4f", tt.year, tt.month, tt.day, got, tt.want)
		}
	}
}

func TestFormatUTC(t *testing.T) {
	// MJD 51544.5 is 2000-01-01 12:00:00 UTC.
	got := FormatUTC(51544.5)
	want := "2000-01-01T12:00:00.000"
	if got != want {
		t.Errorf("FormatUTC(51544.5) = %q, want %q", got, want)
	}
}

// TestMeanSiderealRad validates sidereal time against the go-satellite
// library's GSTimeFromDate, an independent implementation of the same
// IAU-82 model.
func TestMeanSiderealRad(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		},
		{
			name: "recent date 2026",
			time: time.Date(2026, 8, 28, 4, 1, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			our := MeanSiderealRad(tt.time)
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			diff := math.Abs(our - ref)
			// Wrap-around at 2π.
			if diff > math.Pi {
				diff = 2*math.Pi - diff
			}
			if diff > 1e-6 {
				t.Errorf("MeanSiderealRad(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tt.time, our, ref, diff)
			}
		})
	}
}
