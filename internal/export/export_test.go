package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/winter-telescope/wintertoo/internal/fieldcat"
	"github.com/winter-telescope/wintertoo/internal/program"
	"github.com/winter-telescope/wintertoo/internal/schedule"
	"github.com/winter-telescope/wintertoo/internal/too"
)

func ptr[T any](v T) *T { return &v }

func testSchedule(t *testing.T) schedule.Schedule {
	t.Helper()
	req := too.Request{
		Grid:              fieldcat.GridWide,
		RADeg:             ptr(150.0),
		DecDeg:            ptr(80.0),
		Filters:           []string{"g", "r"},
		TargetPriority:    50,
		TargetName:        "ToO",
		TotalExposureTime: 300,
		NDither:           10,
		NRepetitions:      1,
		DitherDistance:    30,
		StartTimeMJD:      59400.1,
		EndTimeMJD:        59400.2,
		MaxAirmass:        2,
	}
	prog := program.Program{
		ProgID:         1,
		ProgName:       "2021A000",
		PIName:         "Danny Weiner",
		StartDate:      time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(3023, time.December, 31, 0, 0, 0, 0, time.UTC),
		HoursAllocated: 1.0,
		MaxPriority:    100,
	}
	sched, err := schedule.Build([]too.Request{req}, prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sched
}

func TestArtifactName(t *testing.T) {
	stamp := time.Date(2021, time.July, 5, 18, 30, 42, 0, time.UTC)
	got := ArtifactName("2021A000", stamp)
	want := "request_2021A000_2021_07_05_18_30_42.db"
	if got != want {
		t.Errorf("ArtifactName = %q, want %q", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	sched := testSchedule(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sched); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(sched)+1 {
		t.Fatalf("got %d lines, want %d", len(lines), len(sched)+1)
	}
	if !strings.HasPrefix(lines[0], "obsHistID,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2021A000") {
		t.Errorf("first row %q missing program name", lines[1])
	}
}

func TestWriteCSVRejectsInvalid(t *testing.T) {
	sched := testSchedule(t)
	sched[0].VisitExpTime = -1
	if err := WriteCSV(&bytes.Buffer{}, sched); err == nil {
		t.Fatal("expected schema failure before export")
	}
}

func TestWriteSQLite(t *testing.T) {
	sched := testSchedule(t)
	path := filepath.Join(t.TempDir(), ArtifactName("2021A000", time.Now()))

	if err := WriteSQLite(path, sched); err != nil {
		t.Fatalf("WriteSQLite: %v", err)
	}
	// Replace semantics: a second export of the same batch overwrites.
	if err := WriteSQLite(path, sched); err != nil {
		t.Fatalf("WriteSQLite (replace): %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("reopening export: %v", err)
	}
	var n int64
	if err := db.Table("Summary").Count(&n).Error; err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != int64(len(sched)) {
		t.Errorf("Summary has %d rows, want %d", n, len(sched))
	}

	var got schedule.Row
	if err := db.Table("Summary").Where("obsHistID = ?", 0).Take(&got).Error; err != nil {
		t.Fatalf("reading row 0: %v", err)
	}
	if got.ProgName != "2021A000" || got.Filter != sched[0].Filter {
		t.Errorf("row 0 = %+v, want %+v", got, sched[0])
	}
}
