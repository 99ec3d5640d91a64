// Package schedule turns validated observation requests into the flat
// row form consumed by the nightly scheduler.
package schedule

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Row is one scheduled visit. Column names follow the observing request
// schema so rows serialize directly into the scheduler's Summary table.
type Row struct {
	ObsHistID      int     `json:"obsHistID" gorm:"column:obsHistID;primaryKey"`
	TargName       string  `json:"targName" gorm:"column:targName"`
	RADeg          float64 `json:"raDeg" gorm:"column:raDeg"`
	DecDeg         float64 `json:"decDeg" gorm:"column:decDeg"`
	FieldID        int     `json:"fieldID" gorm:"column:fieldID"`
	Filter         string  `json:"filter" gorm:"column:filter"`
	VisitExpTime   float64 `json:"visitExpTime" gorm:"column:visitExpTime"`
	Priority       float64 `json:"priority" gorm:"column:priority"`
	ProgPI         string  `json:"progPI" gorm:"column:progPI"`
	ProgName       string  `json:"progName" gorm:"column:progName"`
	ProgID         int     `json:"progID" gorm:"column:progID"`
	ValidStart     float64 `json:"validStart" gorm:"column:validStart"`
	ValidStop      float64 `json:"validStop" gorm:"column:validStop"`
	Observed       bool    `json:"observed" gorm:"column:observed"`
	MaxAirmass     float64 `json:"maxAirmass" gorm:"column:maxAirmass"`
	DitherNumber   int     `json:"ditherNumber" gorm:"column:ditherNumber"`
	DitherStepSize float64 `json:"ditherStepSize" gorm:"column:ditherStepSize"`
	BestDetector   bool    `json:"bestDetector" gorm:"column:bestDetector"`
}

// TableName fixes the gorm table name to the one the scheduler reads.
func (Row) TableName() string { return "Summary" }

// Record returns the row as a generic map keyed by schema column name.
func (r Row) Record() map[string]any {
	raw, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("schedule: marshal row: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		panic(fmt.Sprintf("schedule: unmarshal row: %v", err))
	}
	return m
}

// Schedule is an ordered set of rows with dense observation history IDs.
type Schedule []Row

// ExposureHours sums the requested open-shutter time in hours.
func (s Schedule) ExposureHours() float64 {
	var sec float64
	for _, r := range s {
		sec += r.VisitExpTime
	}
	return sec / 3600
}

// Renumber rewrites obsHistID densely from zero in row order.
func (s Schedule) Renumber() {
	for i := range s {
		s[i].ObsHistID = i
	}
}

// Concat joins schedules into one, renumbering the combined rows.
func Concat(schedules ...Schedule) Schedule {
	var out Schedule
	for _, s := range schedules {
		out = append(out, s...)
	}
	out.Renumber()
	return out
}
