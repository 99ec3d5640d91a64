// Package validate runs the acceptance gate between a built schedule
// and the nightly queue.
package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/winter-telescope/wintertoo/internal/astrotime"
	"github.com/winter-telescope/wintertoo/internal/metrics"
	"github.com/winter-telescope/wintertoo/internal/program"
	"github.com/winter-telescope/wintertoo/internal/schedule"
	"github.com/winter-telescope/wintertoo/internal/schema"
	"github.com/winter-telescope/wintertoo/internal/visibility"
)

// Check names, reported in errors and metrics labels.
const (
	CheckSchema          = "schema"
	CheckSingleProgram   = "single_program"
	CheckVisibility      = "visibility"
	CheckObsHistIDs      = "obs_hist_ids"
	CheckPIMatch         = "pi_match"
	CheckPriorityCeiling = "priority_ceiling"
	CheckTimeBudget      = "time_budget"
	CheckDateContainment = "date_containment"
)

// Error is a validation failure. Row is -1 for schedule-wide failures.
type Error struct {
	Check string
	Row   int
	msg   string
}

func (e *Error) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s check failed: %s", e.Check, e.msg)
	}
	return fmt.Sprintf("%s check failed on row %d: %s", e.Check, e.Row, e.msg)
}

func failf(check string, row int, format string, args ...any) *Error {
	metrics.ValidationFailure(check)
	return &Error{Check: check, Row: row, msg: fmt.Sprintf(format, args...)}
}

// Pipeline holds the stateful dependencies of the gate.
type Pipeline struct {
	Oracle *visibility.Oracle
	Logger *slog.Logger
}

// NewPipeline builds a gate with the default Palomar oracle.
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Oracle: visibility.NewOracle(visibility.Palomar, visibility.Config{}),
		Logger: logger,
	}
}

// AgainstProgram runs every check in gate order and returns the first
// failure.
func (p *Pipeline) AgainstProgram(sched schedule.Schedule, prog program.Program) error {
	checks := []func() error{
		func() error { return Schema(sched) },
		func() error { return SingleProgram(sched) },
		func() error { return p.Visibility(sched) },
		func() error { return ObsHistIDs(sched) },
		func() error { return PIMatch(sched, prog) },
		func() error { return PriorityCeiling(sched, prog) },
		func() error { return TimeBudget(sched, prog) },
		func() error { return DateContainment(sched, prog) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	p.Logger.Info("schedule accepted",
		"progname", prog.ProgName, "rows", len(sched), "hours", sched.ExposureHours())
	return nil
}

// WithCredentials resolves the presented credentials and validates the
// schedule against the matching program.
func (p *Pipeline) WithCredentials(ctx context.Context, resolver program.Resolver, sched schedule.Schedule, creds program.Credentials) (program.Program, error) {
	prog, err := resolver.Lookup(ctx, creds)
	if err != nil {
		return program.Program{}, err
	}
	if err := p.AgainstProgram(sched, prog); err != nil {
		return program.Program{}, err
	}
	return prog, nil
}

// Schema verifies every row against the observing request schema.
func Schema(sched schedule.Schedule) error {
	for i, row := range sched {
		if err := schema.ValidateRecord(row.Record()); err != nil {
			return failf(CheckSchema, i, "%v", err)
		}
	}
	return nil
}

// SingleProgram requires every row to carry the same program.
func SingleProgram(sched schedule.Schedule) error {
	if len(sched) == 0 {
		return nil
	}
	first := sched[0]
	for i, row := range sched[1:] {
		if row.ProgName != first.ProgName || row.ProgID != first.ProgID {
			return failf(CheckSingleProgram, i+1,
				"program %s (id %d) differs from %s (id %d)",
				row.ProgName, row.ProgID, first.ProgName, first.ProgID)
		}
	}
	return nil
}

// Visibility requires each row's target to be observable during the
// nights containing both ends of its validity window.
func (p *Pipeline) Visibility(sched schedule.Schedule) error {
	for i, row := range sched {
		for _, mjd := range []float64{row.ValidStart, row.ValidStop} {
			up, msg, err := p.Oracle.UpTonight(mjd, row.RADeg, row.DecDeg)
			if err != nil {
				return failf(CheckVisibility, i, "oracle failed at MJD %g: %v", mjd, err)
			}
			if !up {
				return failf(CheckVisibility, i,
					"target (%g, %g) at MJD %g: %s", row.RADeg, row.DecDeg, mjd, msg)
			}
		}
	}
	return nil
}

// ObsHistIDs requires dense unique observation history IDs starting at
// zero.
func ObsHistIDs(sched schedule.Schedule) error {
	if len(sched) == 0 {
		return nil
	}
	seen := make(map[int]int, len(sched))
	min := sched[0].ObsHistID
	for i, row := range sched {
		if prev, dup := seen[row.ObsHistID]; dup {
			return failf(CheckObsHistIDs, i, "obsHistID %d repeats row %d", row.ObsHistID, prev)
		}
		seen[row.ObsHistID] = i
		if row.ObsHistID < min {
			min = row.ObsHistID
		}
	}
	if min != 0 {
		return failf(CheckObsHistIDs, -1, "lowest obsHistID is %d, want 0", min)
	}
	return nil
}

// PIMatch requires each row's PI and program name to match the resolved
// program exactly.
func PIMatch(sched schedule.Schedule, prog program.Program) error {
	for i, row := range sched {
		if row.ProgName != prog.ProgName {
			return failf(CheckPIMatch, i, "progName %q does not match program %q", row.ProgName, prog.ProgName)
		}
		if row.ProgPI != prog.PIName {
			return failf(CheckPIMatch, i, "progPI %q does not match PI %q", row.ProgPI, prog.PIName)
		}
	}
	return nil
}

// PriorityCeiling requires row priorities at or below the program's
// maximum.
func PriorityCeiling(sched schedule.Schedule, prog program.Program) error {
	for i, row := range sched {
		if row.Priority > prog.MaxPriority {
			return failf(CheckPriorityCeiling, i,
				"priority %g exceeds program maximum %g", row.Priority, prog.MaxPriority)
		}
	}
	return nil
}

// TimeBudget requires the schedule to fit the program's remaining hours.
func TimeBudget(sched schedule.Schedule, prog program.Program) error {
	hours := sched.ExposureHours()
	if prog.HoursUsed+hours > prog.HoursAllocated {
		return failf(CheckTimeBudget, -1,
			"schedule needs %.3f h but program %s has %.3f of %.3f h remaining",
			hours, prog.ProgName, prog.HoursRemaining(), prog.HoursAllocated)
	}
	return nil
}

// DateContainment requires each validity window to be well ordered and
// inside the program's date range. Program dates bound at midnight UTC.
func DateContainment(sched schedule.Schedule, prog program.Program) error {
	progStart := astrotime.TimeToMJD(prog.StartDate)
	progEnd := astrotime.TimeToMJD(prog.EndDate)
	for i, row := range sched {
		if row.ValidStart > row.ValidStop {
			return failf(CheckDateContainment, i,
				"validStart %g after validStop %g", row.ValidStart, row.ValidStop)
		}
		if row.ValidStart < progStart {
			return failf(CheckDateContainment, i,
				"validStart %g before program start MJD %g", row.ValidStart, progStart)
		}
		if row.ValidStop > progEnd {
			return failf(CheckDateContainment, i,
				"validStop %g after program end MJD %g", row.ValidStop, progEnd)
		}
	}
	return nil
}
