package program

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Cache keeps recently resolved programs in redis so repeated submissions
// from the same program do not hit postgres every time. Entries never hold
// the plaintext key, only the stored hash, and the presented key is always
// re-verified on a hit.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache builds a cache backed by the given redis address.
func NewCache(addr string, ttl time.Duration, logger *slog.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(progName string) string {
	return "wintertoo:program:" + progName
}

// Get returns the cached program for progName, if present. Cache failures
// are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, progName string) (Program, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(progName)).Bytes()
	if err == redis.Nil {
		return Program{}, false
	}
	if err != nil {
		c.logger.Warn("program cache read failed", "progname", progName, "error", err)
		return Program{}, false
	}

	var entry cachedProgram
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("program cache entry corrupt", "progname", progName, "error", err)
		c.rdb.Del(ctx, cacheKey(progName))
		return Program{}, false
	}
	p := entry.Program
	p.ProgKeyHash = entry.ProgKeyHash
	return p, true
}

// Put stores a resolved program.
func (c *Cache) Put(ctx context.Context, p Program) {
	raw, err := marshalCached(p)
	if err != nil {
		c.logger.Warn("program cache encode failed", "progname", p.ProgName, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(p.ProgName), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("program cache write failed", "progname", p.ProgName, "error", err)
	}
}

// Invalidate drops a cached program, for use after hours accounting or
// credential changes land in postgres.
func (c *Cache) Invalidate(ctx context.Context, progName string) error {
	if err := c.rdb.Del(ctx, cacheKey(progName)).Err(); err != nil {
		return fmt.Errorf("invalidating cached program %q: %w", progName, err)
	}
	return nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// cachedProgram mirrors Program but includes the key hash, which the
// public JSON form deliberately omits.
type cachedProgram struct {
	Program
	ProgKeyHash string `json:"prog_key_hash"`
}

func marshalCached(p Program) ([]byte, error) {
	return json.Marshal(cachedProgram{Program: p, ProgKeyHash: p.ProgKeyHash})
}
