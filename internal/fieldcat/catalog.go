// Package fieldcat provides the static survey-field catalogs and the
// point-containment and nearest-tile queries used to resolve ToO targets.
//
// The two catalogs (wide and narrow grid) are embedded reference data,
// loaded once on first use and read-only thereafter; they are safe to share
// across concurrent callers.
package fieldcat

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
)

//go:embed data/wide_fields.txt data/narrow_fields.txt
var dataFS embed.FS

// secondaryGridMinID marks the start of the narrow secondary grid. Secondary
// tiles are interleaved in the reference table but are not schedulable and
// are dropped at load time.
const secondaryGridMinID = 41170

// Field is one tile of a survey grid.
type Field struct {
	ID     int
	RADeg  float64
	DecDeg float64
	Grid   Grid
}

func (f Field) String() string {
	return fmt.Sprintf("field %d (%v %v, %s grid)", f.ID,
		sexa.FmtRA(unit.RAFromDeg(f.RADeg)),
		sexa.FmtAngle(unit.AngleFromDeg(f.DecDeg)),
		f.Grid)
}

// NotFoundError reports a field ID absent from a catalog.
type NotFoundError struct {
	FieldID int
	Grid    Grid
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find field %d in %s grid", e.FieldID, e.Grid)
}

// NoCoverageError reports a sky position outside every tile footprint of a
// grid (the point falls in a grid gap or beyond the survey footprint).
type NoCoverageError struct {
	RADeg  float64
	DecDeg float64
	Grid   Grid
}

func (e *NoCoverageError) Error() string {
	return fmt.Sprintf("no %s-grid field overlaps %v %v (ra=%.6f dec=%.6f)",
		e.Grid,
		sexa.FmtRA(unit.RAFromDeg(e.RADeg)),
		sexa.FmtAngle(unit.AngleFromDeg(e.DecDeg)),
		e.RADeg, e.DecDeg)
}

// Catalog is an immutable, ordered field table for one grid.
type Catalog struct {
	grid   Grid
	fields []Field
	byID   map[int]int
}

var (
	loadOnce sync.Once
	wideCat  *Catalog
	narrowCat *Catalog
)

func load() {
	var err error
	wideCat, err = loadCatalog("data/wide_fields.txt", GridWide)
	if err != nil {
		panic(fmt.Sprintf("fieldcat: loading wide catalog: %v", err))
	}
	narrowCat, err = loadCatalog("data/narrow_fields.txt", GridNarrow)
	if err != nil {
		panic(fmt.Sprintf("fieldcat: loading narrow catalog: %v", err))
	}
}

// Wide returns the wide-grid catalog.
func Wide() *Catalog {
	loadOnce.Do(load)
	return wideCat
}

// Narrow returns the narrow-grid catalog.
func Narrow() *Catalog {
	loadOnce.Do(load)
	return narrowCat
}

// ForGrid returns the catalog for the given grid.
func ForGrid(g Grid) *Catalog {
	if g == GridNarrow {
		return Narrow()
	}
	return Wide()
}

func loadCatalog(path string, grid Grid) (*Catalog, error) {
	f, err := dataFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields, err := parseTable(f, grid)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	byID := make(map[int]int, len(fields))
	for i, fld := range fields {
		if prev, dup := byID[fld.ID]; dup {
			return nil, fmt.Errorf("duplicate field ID %d (rows %d and %d)", fld.ID, prev, i)
		}
		byID[fld.ID] = i
	}

	return &Catalog{grid: grid, fields: fields, byID: byID}, nil
}

// parseTable reads a whitespace-delimited field table. The first line is a
// header naming the columns; only ID, RA and Dec are consumed, any further
// columns are ignored. Narrow-grid rows at or above the secondary-grid ID
// threshold are skipped.
func parseTable(r io.Reader, grid Grid) ([]Field, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		return nil, fmt.Errorf("empty field table")
	}

	idCol, raCol, decCol := -1, -1, -1
	for i, name := range strings.Fields(scanner.Text()) {
		switch strings.TrimPrefix(name, "#") {
		case "ID":
			idCol = i
		case "RA":
			raCol = i
		case "Dec":
			decCol = i
		}
	}
	if idCol < 0 || raCol < 0 || decCol < 0 {
		return nil, fmt.Errorf("header missing ID/RA/Dec columns")
	}

	var fields []Field
	line := 1
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) <= idCol || len(cols) <= raCol || len(cols) <= decCol {
			return nil, fmt.Errorf("line %d: too few columns", line)
		}

		id, err := strconv.Atoi(cols[idCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid field ID %q: %w", line, cols[idCol], err)
		}
		ra, err := strconv.ParseFloat(cols[raCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid RA %q: %w", line, cols[raCol], err)
		}
		dec, err := strconv.ParseFloat(cols[decCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid Dec %q: %w", line, cols[decCol], err)
		}

		if id < 1 {
			return nil, fmt.Errorf("line %d: field ID %d out of range", line, id)
		}
		if ra < 0 || ra >= 360 {
			return nil, fmt.Errorf("line %d: RA %.6f out of range [0,360)", line, ra)
		}
		if dec < -90 || dec > 90 {
			return nil, fmt.Errorf("line %d: Dec %.6f out of range [-90,90]", line, dec)
		}

		if grid == GridNarrow && id >= secondaryGridMinID {
			continue
		}

		fields = append(fields, Field{ID: id, RADeg: ra, DecDeg: dec, Grid: grid})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading field table: %w", err)
	}

	return fields, nil
}

// Grid returns the catalog's grid.
func (c *Catalog) Grid() Grid { return c.grid }

// Len returns the number of fields in the catalog.
func (c *Catalog) Len() int { return len(c.fields) }

// Lookup returns the field with the given ID.
func (c *Catalog) Lookup(fieldID int) (Field, error) {
	i, ok := c.byID[fieldID]
	if !ok {
		return Field{}, &NotFoundError{FieldID: fieldID, Grid: c.grid}
	}
	return c.fields[i], nil
}

// InBox returns every field whose center lies within the given rectangle,
// expanded on all sides by half the grid's base tile width, so a tile that
// only partially overlaps the box is still returned. Bounds are exclusive.
//
// RA wraparound at 0/360 is not handled: a box spanning the boundary only
// returns tiles on the numeric side of its limits.
func (c *Catalog) InBox(raMin, raMax, decMin, decMax float64) []Field {
	half := 0.5 * c.grid.BaseWidthDeg()

	var res []Field
	for _, f := range c.fields {
		if f.RADeg > raMin-half && f.RADeg < raMax+half &&
			f.DecDeg > decMin-half && f.DecDeg < decMax+half {
			res = append(res, f)
		}
	}
	return res
}

// Overlapping returns every field whose footprint contains the given point.
// Footprints are squares of the base width corrected for declination by
// 1/cos(dec), evaluated at the query point's declination.
func (c *Catalog) Overlapping(raDeg, decDeg float64) []Field {
	half := 0.5 * c.grid.BaseWidthDeg() / math.Cos(decDeg*math.Pi/180)

	var res []Field
	for _, f := range c.fields {
		if f.RADeg > raDeg-half && f.RADeg < raDeg+half &&
			f.DecDeg > decDeg-half && f.DecDeg < decDeg+half {
			res = append(res, f)
		}
	}
	return res
}

// BestField returns the overlapping field whose center is closest to the
// point by great-circle separation. Ties keep the first field in catalog
// order.
func (c *Catalog) BestField(raDeg, decDeg float64) (Field, error) {
	overlapping := c.Overlapping(raDeg, decDeg)
	if len(overlapping) == 0 {
		return Field{}, &NoCoverageError{RADeg: raDeg, DecDeg: decDeg, Grid: c.grid}
	}

	best := overlapping[0]
	bestSep := Separation(raDeg, decDeg, best.RADeg, best.DecDeg)
	for _, f := range overlapping[1:] {
		if sep := Separation(raDeg, decDeg, f.RADeg, f.DecDeg); sep < bestSep {
			best, bestSep = f, sep
		}
	}
	return best, nil
}

// Separation returns the great-circle angular separation of two sky
// positions in degrees, by the spherical law of cosines.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	const d2r = math.Pi / 180
	s := math.Sin(dec1*d2r)*math.Sin(dec2*d2r) +
		math.Cos(dec1*d2r)*math.Cos(dec2*d2r)*math.Cos((ra1-ra2)*d2r)
	// Clamp against rounding before acos.
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return math.Acos(s) / d2r
}
