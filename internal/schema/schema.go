// Package schema holds the JSON Schema for a ToO observing request row.
//
// The schema document is the single source of truth for what a legal
// schedule row looks like: field presence, types, numeric bounds, and the
// filter enum. It also carries the default values applied when a request
// leaves a field unspecified; those defaults are loaded into a typed struct
// here and round-trip validated against the schema itself, so a drifting
// default is caught at startup rather than at submission time.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed observing_request_schema.json
var schemaDoc []byte

// GuestFieldID is the reserved field ID for free-pointing observations not
// tied to a survey tile.
const GuestFieldID = 999999999

// RowDefaults is the typed view of the schema's per-property defaults.
type RowDefaults struct {
	TargName       string  `json:"targName"`
	FieldID        int     `json:"fieldID"`
	VisitExpTime   float64 `json:"visitExpTime"`
	Priority       float64 `json:"priority"`
	MaxAirmass     float64 `json:"maxAirmass"`
	DitherNumber   int     `json:"ditherNumber"`
	DitherStepSize float64 `json:"ditherStepSize"`
	BestDetector   bool    `json:"bestDetector"`
	ProgID         int     `json:"progID"`
}

// columns is the canonical row column order for tabular exports. Kept in
// lockstep with the schema's properties.
var columns = []string{
	"obsHistID", "targName", "raDeg", "decDeg", "fieldID", "filter",
	"visitExpTime", "priority", "progPI", "progName", "progID",
	"validStart", "validStop", "observed", "maxAirmass",
	"ditherNumber", "ditherStepSize", "bestDetector",
}

var (
	once     sync.Once
	compiled *jsonschema.Schema
	defaults RowDefaults
	loadErr  error
)

type schemaFile struct {
	Properties map[string]struct {
		Default any `json:"default"`
	} `json:"properties"`
	Required []string `json:"required"`
}

func load() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("observing_request_schema.json", strings.NewReader(string(schemaDoc))); err != nil {
		loadErr = fmt.Errorf("adding schema resource: %w", err)
		return
	}
	sch, err := c.Compile("observing_request_schema.json")
	if err != nil {
		loadErr = fmt.Errorf("compiling row schema: %w", err)
		return
	}
	compiled = sch

	var doc schemaFile
	if err := json.Unmarshal(schemaDoc, &doc); err != nil {
		loadErr = fmt.Errorf("decoding schema defaults: %w", err)
		return
	}

	rec := make(map[string]any, len(doc.Required))
	for _, name := range doc.Required {
		prop, ok := doc.Properties[name]
		if !ok || prop.Default == nil {
			loadErr = fmt.Errorf("schema property %q has no default", name)
			return
		}
		rec[name] = prop.Default
	}

	// The defaults themselves must form a legal row.
	if err := sch.Validate(rec); err != nil {
		loadErr = fmt.Errorf("schema defaults do not satisfy the schema: %w", err)
		return
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		loadErr = err
		return
	}
	if err := json.Unmarshal(raw, &defaults); err != nil {
		loadErr = fmt.Errorf("decoding typed defaults: %w", err)
		return
	}
}

// Defaults returns the typed default values declared by the row schema.
func Defaults() RowDefaults {
	once.Do(load)
	if loadErr != nil {
		panic(fmt.Sprintf("schema: %v", loadErr))
	}
	return defaults
}

// Columns returns the canonical column order for tabular exports of a row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// ValidateRecord checks a flat key/value row record against the schema.
// Values must use JSON types (float64 for numbers, bool, string).
func ValidateRecord(rec map[string]any) error {
	once.Do(load)
	if loadErr != nil {
		panic(fmt.Sprintf("schema: %v", loadErr))
	}
	if err := compiled.Validate(rec); err != nil {
		return fmt.Errorf("row does not match observing request schema: %w", err)
	}
	return nil
}
