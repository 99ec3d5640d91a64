package fieldcat

import "fmt"

// Grid identifies one of the two instrument survey grids.
type Grid int

const (
	// GridWide is the small-tile optical grid (0.26112 deg base width).
	GridWide Grid = iota
	// GridNarrow is the large-tile infrared grid (1.0 deg base width).
	GridNarrow
)

// Base tile widths in degrees. The effective RA width of a tile scales
// with 1/cos(dec).
const (
	WideBaseWidthDeg   = 0.26112
	NarrowBaseWidthDeg = 1.0
)

func (g Grid) String() string {
	switch g {
	case GridWide:
		return "wide"
	case GridNarrow:
		return "narrow"
	}
	return fmt.Sprintf("Grid(%d)", int(g))
}

// BaseWidthDeg returns the grid's base tile width in degrees.
func (g Grid) BaseWidthDeg() float64 {
	if g == GridNarrow {
		return NarrowBaseWidthDeg
	}
	return WideBaseWidthDeg
}

// ParseGrid parses "wide" or "narrow".
func ParseGrid(s string) (Grid, error) {
	switch s {
	case "wide":
		return GridWide, nil
	case "narrow":
		return GridNarrow, nil
	}
	return 0, fmt.Errorf("unknown grid %q (want \"wide\" or \"narrow\")", s)
}

// MarshalText implements encoding.TextMarshaler so Grid round-trips
// through JSON and YAML as its name.
func (g Grid) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grid) UnmarshalText(text []byte) error {
	parsed, err := ParseGrid(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
