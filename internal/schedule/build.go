package schedule

import (
	"fmt"

	"github.com/winter-telescope/wintertoo/internal/fieldcat"
	"github.com/winter-telescope/wintertoo/internal/metrics"
	"github.com/winter-telescope/wintertoo/internal/program"
	"github.com/winter-telescope/wintertoo/internal/schema"
	"github.com/winter-telescope/wintertoo/internal/too"
)

// Build expands requests into schedule rows under the given program.
// Any invalid request or failed field lookup rejects the whole batch.
func Build(reqs []too.Request, prog program.Program) (Schedule, error) {
	var out Schedule
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}

		raDeg, decDeg, fieldID, err := resolveTarget(req)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}

		for _, filter := range req.Filters {
			for rep := 0; rep < req.NRepetitions; rep++ {
				out = append(out, Row{
					TargName:       req.TargetName,
					RADeg:          raDeg,
					DecDeg:         decDeg,
					FieldID:        fieldID,
					Filter:         filter,
					VisitExpTime:   req.SingleExposureTime(),
					Priority:       req.TargetPriority,
					ProgPI:         prog.PIName,
					ProgName:       prog.ProgName,
					ProgID:         prog.ProgID,
					ValidStart:     req.StartTimeMJD,
					ValidStop:      req.EndTimeMJD,
					Observed:       false,
					MaxAirmass:     req.MaxAirmass,
					DitherNumber:   req.NDither,
					DitherStepSize: req.DitherDistance,
					BestDetector:   req.UseBestDetector,
				})
			}
		}
	}
	out.Renumber()

	for _, row := range out {
		if err := schema.ValidateRecord(row.Record()); err != nil {
			return nil, fmt.Errorf("row %d fails schema: %w", row.ObsHistID, err)
		}
	}

	metrics.ScheduleBuilt(len(out))
	return out, nil
}

// resolveTarget turns the request's locator into concrete pointing values.
// Coordinate requests with use_field_grid set snap to the nearest field
// center; plain coordinate requests carry the guest field sentinel.
func resolveTarget(req too.Request) (raDeg, decDeg float64, fieldID int, err error) {
	cat := fieldcat.ForGrid(req.Grid)

	switch req.Locator() {
	case too.LocatorField:
		f, err := cat.Lookup(*req.FieldID)
		if err != nil {
			return 0, 0, 0, err
		}
		return f.RADeg, f.DecDeg, f.ID, nil

	case too.LocatorCoordinates:
		if !req.UseFieldGrid {
			return *req.RADeg, *req.DecDeg, schema.GuestFieldID, nil
		}
		f, err := cat.BestField(*req.RADeg, *req.DecDeg)
		if err != nil {
			return 0, 0, 0, err
		}
		return f.RADeg, f.DecDeg, f.ID, nil
	}
	return 0, 0, 0, fmt.Errorf("request has no target locator")
}
