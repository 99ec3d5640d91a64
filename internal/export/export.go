// Package export writes accepted schedules to the formats the nightly
// scheduler and archive ingest.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/winter-telescope/wintertoo/internal/metrics"
	"github.com/winter-telescope/wintertoo/internal/schedule"
	"github.com/winter-telescope/wintertoo/internal/schema"
	"github.com/winter-telescope/wintertoo/internal/validate"
)

const artifactTimeLayout = "2006_01_02_15_04_05"

// ArtifactName builds the canonical file name for a program's schedule
// written at the given instant.
func ArtifactName(progName string, t time.Time) string {
	return fmt.Sprintf("request_%s_%s.db", progName, t.UTC().Format(artifactTimeLayout))
}

// WriteSQLite writes the schedule to a sqlite database at path,
// replacing any existing file. Rows land in the Summary table.
func WriteSQLite(path string, sched schedule.Schedule) error {
	if err := validate.Schema(sched); err != nil {
		return fmt.Errorf("refusing to export: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
	}()

	if err := db.AutoMigrate(&schedule.Row{}); err != nil {
		return fmt.Errorf("creating Summary table: %w", err)
	}
	rows := []schedule.Row(sched)
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("writing %d rows: %w", len(rows), err)
	}

	metrics.ExportCompleted("sqlite")
	return nil
}

// WriteCSV writes the schedule in schema column order.
func WriteCSV(w io.Writer, sched schedule.Schedule) error {
	if err := validate.Schema(sched); err != nil {
		return fmt.Errorf("refusing to export: %w", err)
	}

	cw := csv.NewWriter(w)
	cols := schema.Columns()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range sched {
		rec := row.Record()
		fields := make([]string, len(cols))
		for i, col := range cols {
			fields[i] = formatValue(rec[col])
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("writing row %d: %w", row.ObsHistID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	metrics.ExportCompleted("csv")
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
