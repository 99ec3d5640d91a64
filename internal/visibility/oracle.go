// Package visibility decides whether a target is observable during the
// night containing a given epoch.
package visibility

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/rise"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/winter-telescope/wintertoo/internal/astrotime"
)

// Site is an observatory location. Longitude is degrees west of
// Greenwich, matching the Meeus convention used by the ephemeris
// routines.
type Site struct {
	Name       string
	LatDeg     float64
	LonWestDeg float64
	ElevationM float64
}

// Palomar is the default site.
var Palomar = Site{
	Name:       "Palomar",
	LatDeg:     33.3563,
	LonWestDeg: 116.8650,
	ElevationM: 1712,
}

// Config tunes the oracle.
type Config struct {
	// Samples is the number of altitude samples taken across the night.
	Samples int
	// MinElevationDeg is the altitude floor for a sample to count as
	// observable.
	MinElevationDeg float64
}

// DefaultConfig matches the operational settings at Palomar.
func DefaultConfig() Config {
	return Config{Samples: 100, MinElevationDeg: 20}
}

// Oracle answers nightly visibility queries for one site.
type Oracle struct {
	site Site
	cfg  Config
}

// NewOracle builds an oracle, applying defaults for zero config fields.
func NewOracle(site Site, cfg Config) *Oracle {
	def := DefaultConfig()
	// The sampler divides the night by Samples-1, so anything below two
	// cannot produce an interval.
	if cfg.Samples < 2 {
		cfg.Samples = def.Samples
	}
	if cfg.MinElevationDeg == 0 {
		cfg.MinElevationDeg = def.MinElevationDeg
	}
	return &Oracle{site: site, cfg: cfg}
}

// Site returns the oracle's observatory.
func (o *Oracle) Site() Site { return o.site }

// Night is a dark-time interval at the site, in MJD.
type Night struct {
	SunsetMJD  float64
	SunriseMJD float64
}

// NightWindow finds the night containing mjd, or the next night if mjd
// falls in daylight.
func (o *Oracle) NightWindow(mjd float64) (Night, error) {
	p := globe.Coord{
		Lat: unit.AngleFromDeg(o.site.LatDeg),
		Lon: unit.AngleFromDeg(o.site.LonWestDeg),
	}

	day := math.Floor(mjd)
	var nights []Night
	for d := day - 1; d <= day+2; d++ {
		jd0 := astrotime.MJDToJD(d)
		Th0 := sidereal.Apparent0UT(jd0)
		α, δ := solar.ApparentEquatorial(jd0 + .5)
		tRise, _, tSet, err := rise.ApproxTimes(p, rise.Stdh0Solar, Th0, α, δ)
		if err != nil {
			return Night{}, fmt.Errorf("solar rise/set for MJD %g: %w", d, err)
		}
		nights = append(nights, Night{
			SunsetMJD:  d + tSet.Day(),
			SunriseMJD: d + tRise.Day(),
		})
	}

	// Stitch each sunset to the first sunrise after it, then pick the
	// night containing mjd, falling back to the next one to start.
	var windows []Night
	for _, n := range nights {
		for _, m := range nights {
			if m.SunriseMJD > n.SunsetMJD {
				windows = append(windows, Night{SunsetMJD: n.SunsetMJD, SunriseMJD: m.SunriseMJD})
				break
			}
		}
	}
	for _, w := range windows {
		if mjd >= w.SunsetMJD && mjd <= w.SunriseMJD {
			return w, nil
		}
	}
	for _, w := range windows {
		if w.SunsetMJD > mjd {
			return w, nil
		}
	}
	return Night{}, fmt.Errorf("no night window found near MJD %g", mjd)
}

// AltitudeDeg returns the target's altitude at the given epoch.
func (o *Oracle) AltitudeDeg(mjd, raDeg, decDeg float64) float64 {
	st := sidereal.Apparent(astrotime.MJDToJD(mjd))
	_, h := coord.EqToHz(
		unit.RAFromDeg(raDeg),
		unit.AngleFromDeg(decDeg),
		unit.AngleFromDeg(o.site.LatDeg),
		unit.AngleFromDeg(o.site.LonWestDeg),
		st,
	)
	return h.Deg()
}

// UpTonight reports whether the target clears the elevation floor during
// the night containing mjd. The message states the observable interval
// when it is up.
func (o *Oracle) UpTonight(mjd, raDeg, decDeg float64) (bool, string, error) {
	night, err := o.NightWindow(mjd)
	if err != nil {
		return false, "", err
	}

	step := (night.SunriseMJD - night.SunsetMJD) / float64(o.cfg.Samples-1)
	firstUp, lastUp := -1.0, -1.0
	nUp := 0
	for i := 0; i < o.cfg.Samples; i++ {
		t := night.SunsetMJD + float64(i)*step
		if o.AltitudeDeg(t, raDeg, decDeg) < o.cfg.MinElevationDeg {
			continue
		}
		if nUp == 0 {
			firstUp = t
		}
		lastUp = t
		nUp++
	}

	if nUp < 2 {
		return false, "Object is not up", nil
	}
	msg := fmt.Sprintf("Object is up between UTC %s and %s",
		astrotime.FormatUTC(firstUp), astrotime.FormatUTC(lastUp))
	return true, msg, nil
}
