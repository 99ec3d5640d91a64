package program

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/winter-telescope/wintertoo/internal/metrics"
)

// Credential failures are distinct from schedule validation failures: they
// are raised before any schedule-level check runs.
var (
	// ErrBadCredentials means no program matched the credential pair.
	ErrBadCredentials = errors.New("program credentials not found in database")
	// ErrAmbiguousCredentials means more than one program matched, which
	// indicates a corrupt programs table.
	ErrAmbiguousCredentials = errors.New("multiple programs match credentials")
)

// Resolver looks up a program by its credentials.
type Resolver interface {
	Lookup(ctx context.Context, creds Credentials) (Program, error)
}

// lookupCache is the part of Cache the store consults.
type lookupCache interface {
	Get(ctx context.Context, progName string) (Program, bool)
	Put(ctx context.Context, p Program)
}

// Store resolves programs against the external postgres credential store.
// The store is read-only; hours accounting is owned by the datastore, not
// tracked here.
type Store struct {
	db     *sqlx.DB
	cache  lookupCache
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache attaches a lookup cache to the store.
func WithCache(c *Cache) StoreOption {
	return func(s *Store) { s.cache = c }
}

// NewStore connects to the program database.
func NewStore(dsn string, logger *slog.Logger, opts ...StoreOption) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to program database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectPrograms = `
SELECT progid, progname, prog_key, pi_name, pi_email,
       startdate, enddate, hours_allocated, hours_used,
       maxpriority, progtitle
FROM programs`

// Lookup fetches the program matching the credential pair. The whole table
// is scanned and compared in constant time per row, so response timing does
// not reveal which program names exist.
func (s *Store) Lookup(ctx context.Context, creds Credentials) (Program, error) {
	if s.cache != nil {
		// Cached records are still re-verified against the presented
		// key. A mismatch is treated as a miss, not a rejection: the
		// key may have rotated since the entry was written.
		if p, ok := s.cache.Get(ctx, creds.ProgName); ok && matches(p, creds) {
			metrics.ProgramLookup("hit")
			return p, nil
		}
	}

	var rows []Program
	if err := s.db.SelectContext(ctx, &rows, selectPrograms); err != nil {
		metrics.ProgramLookup("error")
		return Program{}, fmt.Errorf("querying programs table: %w", err)
	}

	match, err := Match(rows, creds)
	if err != nil {
		if errors.Is(err, ErrAmbiguousCredentials) {
			metrics.ProgramLookup("ambiguous")
		} else {
			metrics.ProgramLookup("miss")
		}
		return Program{}, err
	}

	if err := match.Validate(); err != nil {
		metrics.ProgramLookup("error")
		return Program{}, fmt.Errorf("program record failed validation: %w", err)
	}

	if s.cache != nil {
		s.cache.Put(ctx, match)
	}

	s.logger.Info("resolved program", "progname", match.ProgName, "pi", match.PIName)
	metrics.ProgramLookup("hit")
	return match, nil
}

// Match finds the single program whose credentials match the presented
// pair. Program names are compared in constant time and keys are verified
// against the stored bcrypt hash.
func Match(programs []Program, creds Credentials) (Program, error) {
	var found []Program
	for _, p := range programs {
		if matches(p, creds) {
			found = append(found, p)
		}
	}

	switch len(found) {
	case 0:
		return Program{}, ErrBadCredentials
	case 1:
		return found[0], nil
	}
	return Program{}, fmt.Errorf("%w: %q matched %d records", ErrAmbiguousCredentials, creds.ProgName, len(found))
}

func matches(p Program, creds Credentials) bool {
	nameOK := subtle.ConstantTimeCompare([]byte(p.ProgName), []byte(creds.ProgName)) == 1
	keyOK := bcrypt.CompareHashAndPassword([]byte(p.ProgKeyHash), []byte(creds.ProgKey)) == nil
	return nameOK && keyOK
}

// HashKey produces a salted hash for storing a new program key. Only used
// by provisioning tooling; the scheduler itself never writes.
func HashKey(progKey string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(progKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
