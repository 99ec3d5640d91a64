package fieldcat

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// Reference coordinates used across the catalog tests: a narrow/wide grid
// crossing point in Ursa Major and one in Leo.
const (
	umaRA  = 210.910674637
	umaDec = 54.3116510708
	leoRA  = 173.7056754
	leoDec = 11.253441
)

func TestCatalogLoad(t *testing.T) {
	wide, narrow := Wide(), Narrow()

	if wide.Len() != 709 {
		t.Errorf("wide catalog has %d fields, want 709", wide.Len())
	}
	// 146 data rows minus the 6 secondary-grid rows (ID >= 41170).
	if narrow.Len() != 140 {
		t.Errorf("narrow catalog has %d fields, want 140", narrow.Len())
	}

	// Secondary-grid tiles must not be loaded.
	if _, err := narrow.Lookup(41170); err == nil {
		t.Error("Lookup(41170) on narrow grid succeeded, want secondary field excluded")
	}
}

func TestLookup(t *testing.T) {
	f, err := Wide().Lookup(54494)
	if err != nil {
		t.Fatalf("Lookup(54494) error: %v", err)
	}
	if f.ID != 54494 || f.Grid != GridWide {
		t.Errorf("Lookup(54494) = %+v", f)
	}

	_, err = Wide().Lookup(999999)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Lookup(999999) error = %v, want NotFoundError", err)
	}
	if nf.FieldID != 999999 {
		t.Errorf("NotFoundError.FieldID = %d, want 999999", nf.FieldID)
	}
}

func TestInBox(t *testing.T) {
	const width = 0.7
	raMin, raMax := umaRA-width, umaRA+width
	decMin, decMax := umaDec-width, umaDec+width

	fields := Wide().InBox(raMin, raMax, decMin, decMax)
	if len(fields) != 28 {
		t.Fatalf("wide InBox returned %d fields, want 28", len(fields))
	}
	if fields[0].ID != 54494 {
		t.Errorf("first wide field ID = %d, want 54494", fields[0].ID)
	}

	fields = Narrow().InBox(raMin, raMax, decMin, decMax)
	if len(fields) != 3 {
		t.Fatalf("narrow InBox returned %d fields, want 3", len(fields))
	}
	if fields[0].ID != 3735 {
		t.Errorf("first narrow field ID = %d, want 3735", fields[0].ID)
	}
}

func TestOverlapping(t *testing.T) {
	for _, tt := range []struct {
		grid   Grid
		ra     float64
		dec    float64
		wantID int
	}{
		{GridWide, umaRA, umaDec, 54558},
		{GridNarrow, umaRA, umaDec, 3744},
		{GridWide, leoRA, leoDec, 54202},
		{GridNarrow, leoRA, leoDec, 3672},
	} {
		fields := ForGrid(tt.grid).Overlapping(tt.ra, tt.dec)
		if len(fields) != 1 {
			t.Errorf("%s Overlapping(%.4f, %.4f) returned %d fields, want 1", tt.grid, tt.ra, tt.dec, len(fields))
			continue
		}
		if fields[0].ID != tt.wantID {
			t.Errorf("%s Overlapping(%.4f, %.4f) = field %d, want %d", tt.grid, tt.ra, tt.dec, fields[0].ID, tt.wantID)
		}
	}
}

func TestBestField(t *testing.T) {
	f, err := Wide().BestField(umaRA, umaDec)
	if err != nil {
		t.Fatalf("BestField error: %v", err)
	}
	if f.ID != 54558 {
		t.Errorf("BestField = field %d, want 54558", f.ID)
	}

	// A point in a coverage gap fails with a NoCoverageError naming the
	// position.
	_, err = Wide().BestField(10.0, -45.0)
	var nc *NoCoverageError
	if !errors.As(err, &nc) {
		t.Fatalf("BestField in gap error = %v, want NoCoverageError", err)
	}
	if !strings.Contains(err.Error(), "wide") {
		t.Errorf("error %q does not name the grid", err)
	}
}

// TestBestFieldFixedPoint checks that a tile center snaps to its own tile.
func TestBestFieldFixedPoint(t *testing.T) {
	for _, grid := range []Grid{GridWide, GridNarrow} {
		cat := ForGrid(grid)
		center, err := cat.BestField(umaRA, umaDec)
		if err != nil {
			t.Fatalf("%s BestField error: %v", grid, err)
		}

		again, err := cat.BestField(center.RADeg, center.DecDeg)
		if err != nil {
			t.Fatalf("%s BestField at tile center error: %v", grid, err)
		}
		if again.ID != center.ID {
			t.Errorf("%s BestField at center of field %d returned field %d", grid, center.ID, again.ID)
		}
	}
}

func TestSeparation(t *testing.T) {
	tests := []struct {
		name                 string
		ra1, dec1, ra2, dec2 float64
		want                 float64
	}{
		{"coincident", 180, 45, 180, 45, 0},
		{"pole to pole", 0, 90, 0, -90, 180},
		{"equator quarter turn", 0, 0, 90, 0, 90},
		{"polar RA irrelevant", 10, 90, 250, 89, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Separation(tt.ra1, tt.dec1, tt.ra2, tt.dec2)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Separation = %.12f, want %.12f", got, tt.want)
			}
		})
	}
}

func TestParseGrid(t *testing.T) {
	if g, err := ParseGrid("wide"); err != nil || g != GridWide {
		t.Errorf("ParseGrid(wide) = %v, %v", g, err)
	}
	if g, err := ParseGrid("narrow"); err != nil || g != GridNarrow {
		t.Errorf("ParseGrid(narrow) = %v, %v", g, err)
	}
	if _, err := ParseGrid("medium"); err == nil {
		t.Error("ParseGrid(medium) succeeded, want error")
	}
}
