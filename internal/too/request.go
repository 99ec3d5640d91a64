// Package too models Target of Opportunity observation requests.
//
// A Request combines two orthogonal axes: the instrument grid (wide or
// narrow), which fixes the allowed filter set, and the target locator,
// which is either explicit coordinates (optionally snapped to the nearest
// grid tile) or an explicit field ID. Requests are validated as a whole
// before use and treated as immutable values afterwards; the schedule
// builder works on derived copies, never on the original.
package too

import (
	"fmt"
	"slices"

	"github.com/winter-telescope/wintertoo/internal/astrotime"
	"github.com/winter-telescope/wintertoo/internal/fieldcat"
	"github.com/winter-telescope/wintertoo/internal/schema"
)

// Exposure time bounds per dither, in seconds.
const (
	MinExposureTime = 0.28
	MaxExposureTime = 300.0
)

// MaxTargetNameLen bounds the optional target name.
const MaxTargetNameLen = 30

// Filter sets per grid. Narrow-grid science observations default to the
// science subset (the dark filter is for calibration only).
var (
	WideFilters          = []string{"u", "g", "r", "i"}
	NarrowFilters        = []string{"dark", "Y", "J", "Hs"}
	NarrowScienceFilters = []string{"Y", "J", "Hs"}
)

// AllowedFilters returns the full filter set for a grid.
func AllowedFilters(g fieldcat.Grid) []string {
	if g == fieldcat.GridNarrow {
		return NarrowFilters
	}
	return WideFilters
}

// DefaultFilters returns the filter list used when a request names none.
func DefaultFilters(g fieldcat.Grid) []string {
	if g == fieldcat.GridNarrow {
		return NarrowScienceFilters
	}
	return WideFilters
}

// ValidationError reports a malformed request or program record. It is
// always fatal to the object being constructed.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// LocatorKind identifies how a request names its target.
type LocatorKind int

const (
	// LocatorNone means the request names no target at all.
	LocatorNone LocatorKind = iota
	// LocatorCoordinates means explicit ra/dec, optionally grid-snapped.
	LocatorCoordinates
	// LocatorField means an explicit survey field ID.
	LocatorField
)

// Request is one ToO ask. The locator fields RADeg/DecDeg and FieldID are
// pointers so that "unset" is distinguishable from a legitimate zero;
// exactly one locator form must be populated.
type Request struct {
	Grid fieldcat.Grid `json:"grid"`

	RADeg        *float64 `json:"ra_deg,omitempty"`
	DecDeg       *float64 `json:"dec_deg,omitempty"`
	UseFieldGrid bool     `json:"use_field_grid,omitempty"`
	FieldID      *int     `json:"field_id,omitempty"`

	Filters           []string `json:"filters"`
	TargetPriority    float64  `json:"target_priority"`
	TargetName        string   `json:"target_name,omitempty"`
	TotalExposureTime float64  `json:"total_exposure_time"`
	NDither           int      `json:"n_dither"`
	NRepetitions      int      `json:"n_repetitions"`
	DitherDistance    float64  `json:"dither_distance"`
	StartTimeMJD      float64  `json:"start_time_mjd"`
	EndTimeMJD        float64  `json:"end_time_mjd"`
	MaxAirmass        float64  `json:"max_airmass"`
	UseBestDetector   bool     `json:"use_best_detector"`
}

// Defaults returns a request pre-filled with the schema's default values
// and the grid's default filter list. Coordinate requests snap to the
// nearest survey field unless use_field_grid is set to false. The validity
// window defaults to a day starting shortly after now.
func Defaults(g fieldcat.Grid) Request {
	d := schema.Defaults()
	now := astrotime.NowMJD()

	return Request{
		Grid:              g,
		UseFieldGrid:      true,
		Filters:           slices.Clone(DefaultFilters(g)),
		TargetPriority:    d.Priority,
		TargetName:        d.TargName,
		TotalExposureTime: d.VisitExpTime,
		NDither:           d.DitherNumber,
		NRepetitions:      1,
		DitherDistance:    d.DitherStepSize,
		StartTimeMJD:      now + 0.01,
		EndTimeMJD:        now + 1,
		MaxAirmass:        d.MaxAirmass,
		UseBestDetector:   d.BestDetector,
	}
}

// Locator reports which locator form the request uses, without judging
// completeness; Validate enforces that the form is well-formed.
func (r Request) Locator() LocatorKind {
	switch {
	case r.FieldID != nil:
		return LocatorField
	case r.RADeg != nil || r.DecDeg != nil:
		return LocatorCoordinates
	}
	return LocatorNone
}

// SingleExposureTime returns the per-dither exposure time in seconds.
func (r Request) SingleExposureTime() float64 {
	return r.TotalExposureTime / float64(r.NDither)
}

// Validate checks every construction invariant of the request. A request
// that fails validation must be discarded whole.
func (r Request) Validate() error {
	if err := r.validateLocator(); err != nil {
		return err
	}
	if err := r.validateFilters(); err != nil {
		return err
	}

	if r.TargetPriority < 0 {
		return validationErrorf("target_priority (%g) must not be negative", r.TargetPriority)
	}
	if len(r.TargetName) > MaxTargetNameLen {
		return validationErrorf("target_name %q exceeds %d characters", r.TargetName, MaxTargetNameLen)
	}

	if r.TotalExposureTime < 1.0 {
		return validationErrorf("total_exposure_time (%g) must be at least 1 s", r.TotalExposureTime)
	}
	if r.NDither < 1 {
		return validationErrorf("n_dither (%d) must be at least 1", r.NDither)
	}
	if r.NRepetitions < 1 {
		return validationErrorf("n_repetitions (%d) must be at least 1", r.NRepetitions)
	}
	if r.DitherDistance < 0 {
		return validationErrorf("dither_distance (%g) must not be negative", r.DitherDistance)
	}

	perDither := r.SingleExposureTime()
	if perDither > MaxExposureTime {
		return validationErrorf(
			"total_exposure_time (%g) too long for %d dithers: max exposure per dither is %g s, requested %g s",
			r.TotalExposureTime, r.NDither, MaxExposureTime, perDither)
	}
	if perDither < MinExposureTime {
		return validationErrorf(
			"total_exposure_time (%g) too short for %d dithers: min exposure per dither is %g s, requested %g s",
			r.TotalExposureTime, r.NDither, MinExposureTime, perDither)
	}

	if r.EndTimeMJD <= r.StartTimeMJD {
		return validationErrorf("end_time_mjd (%f) not greater than start_time_mjd (%f)",
			r.EndTimeMJD, r.StartTimeMJD)
	}

	if r.MaxAirmass < 1 || r.MaxAirmass > 5 {
		return validationErrorf("max_airmass (%g) outside allowed range [1, 5]", r.MaxAirmass)
	}

	return nil
}

func (r Request) validateLocator() error {
	switch r.Locator() {
	case LocatorField:
		if r.RADeg != nil || r.DecDeg != nil {
			return validationErrorf("request names both field_id and ra_deg/dec_deg; use exactly one")
		}
		if r.UseFieldGrid {
			return validationErrorf("use_field_grid only applies to coordinate requests")
		}
		if *r.FieldID < 1 {
			return validationErrorf("field_id (%d) must be at least 1", *r.FieldID)
		}
	case LocatorCoordinates:
		if r.RADeg == nil || r.DecDeg == nil {
			return validationErrorf("coordinate request needs both ra_deg and dec_deg")
		}
		if ra := *r.RADeg; ra < 0 || ra >= 360 {
			return validationErrorf("ra_deg (%g) outside [0, 360)", ra)
		}
		if dec := *r.DecDeg; dec < -90 || dec > 90 {
			return validationErrorf("dec_deg (%g) outside [-90, 90]", dec)
		}
		if r.UseBestDetector && r.UseFieldGrid {
			return validationErrorf("cannot use both use_best_detector and use_field_grid")
		}
	default:
		return validationErrorf("request names no target: set ra_deg/dec_deg or field_id")
	}
	return nil
}

func (r Request) validateFilters() error {
	if len(r.Filters) == 0 {
		return validationErrorf("filters must not be empty")
	}
	allowed := AllowedFilters(r.Grid)
	for _, f := range r.Filters {
		if !slices.Contains(allowed, f) {
			return validationErrorf("filter %q not available on %s grid (allowed: %v)", f, r.Grid, allowed)
		}
	}
	return nil
}
