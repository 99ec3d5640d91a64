package program

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const createPrograms = `
CREATE TABLE programs (
	progid          INTEGER,
	progname        TEXT,
	prog_key        TEXT,
	pi_name         TEXT,
	pi_email        TEXT,
	startdate       TIMESTAMP,
	enddate         TIMESTAMP,
	hours_allocated REAL,
	hours_used      REAL,
	maxpriority     REAL,
	progtitle       TEXT
)`

const insertProgram = `
INSERT INTO programs (progid, progname, prog_key, pi_name, pi_email,
	startdate, enddate, hours_allocated, hours_used, maxpriority, progtitle)
VALUES (:progid, :progname, :prog_key, :pi_name, :pi_email,
	:startdate, :enddate, :hours_allocated, :hours_used, :maxpriority, :progtitle)`

func openTestStore(t *testing.T, cache lookupCache, programs ...Program) *Store {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(createPrograms); err != nil {
		t.Fatalf("creating programs table: %v", err)
	}
	for _, p := range programs {
		if _, err := db.NamedExec(insertProgram, p); err != nil {
			t.Fatalf("inserting program %s: %v", p.ProgName, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Store{db: db, cache: cache, logger: logger}
}

// recordingCache is an in-memory lookupCache for store tests.
type recordingCache struct {
	entries map[string]Program
	puts    int
}

func (c *recordingCache) Get(ctx context.Context, progName string) (Program, bool) {
	p, ok := c.entries[progName]
	return p, ok
}

func (c *recordingCache) Put(ctx context.Context, p Program) {
	c.entries[p.ProgName] = p
	c.puts++
}

func TestLookup(t *testing.T) {
	stored := testProgram(t, "2021A000", "alpha-key")
	store := openTestStore(t, nil, stored)
	ctx := context.Background()

	t.Run("correct credentials", func(t *testing.T) {
		got, err := store.Lookup(ctx, Credentials{ProgName: "2021A000", ProgKey: "alpha-key"})
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if got.ProgName != "2021A000" || got.PIName != stored.PIName {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := store.Lookup(ctx, Credentials{ProgName: "2021A000", ProgKey: "wrong"})
		if !errors.Is(err, ErrBadCredentials) {
			t.Errorf("err = %v, want ErrBadCredentials", err)
		}
	})
}

func TestLookupCacheHit(t *testing.T) {
	stored := testProgram(t, "2021A000", "alpha-key")
	cache := &recordingCache{entries: map[string]Program{stored.ProgName: stored}}
	// No database row: a verified cache hit must be served without it.
	store := openTestStore(t, cache)

	got, err := store.Lookup(context.Background(), Credentials{ProgName: "2021A000", ProgKey: "alpha-key"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.ProgName != "2021A000" {
		t.Errorf("got %+v", got)
	}
}

func TestLookupStaleCacheFallsThrough(t *testing.T) {
	// The database carries the rotated key; the cache still holds the
	// old hash. The presented (new) key must resolve via the database,
	// not be rejected on the stale entry.
	current := testProgram(t, "2021A000", "rotated-key")
	stale := testProgram(t, "2021A000", "old-key")

	cache := &recordingCache{entries: map[string]Program{stale.ProgName: stale}}
	store := openTestStore(t, cache, current)

	got, err := store.Lookup(context.Background(), Credentials{ProgName: "2021A000", ProgKey: "rotated-key"})
	if err != nil {
		t.Fatalf("Lookup after key rotation: %v", err)
	}
	if got.ProgKeyHash != current.ProgKeyHash {
		t.Error("lookup did not return the database record")
	}
	if cache.puts != 1 {
		t.Errorf("cache refreshed %d times, want 1", cache.puts)
	}
	if cache.entries["2021A000"].ProgKeyHash != current.ProgKeyHash {
		t.Error("cache entry not refreshed with the rotated record")
	}
}
