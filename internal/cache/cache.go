// Package cache implements the result cache: a bounded LRU of serialized
// operation results, keyed by a fingerprint over (engine, database, graph,
// operation, params), with TTL expiry and single-flight coalescing of
// concurrent misses on the same key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Fingerprint identifies one cacheable operation's result.
type Fingerprint struct {
	Engine    string
	Database  string
	GraphID   string
	Operation string
	Params    map[string]any
}

// String renders the fingerprint as the cache key: the identifying fields
// joined with "|", followed by a sha256 hex digest over the sorted-key JSON
// encoding of Params, grounded on moolen-spectre's MakeQueryKey.
func (f Fingerprint) String() string {
	h := sha256.New()
	keys := make([]string, 0, len(f.Params))
	for k := range f.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		b, _ := json.Marshal(f.Params[k])
		h.Write(b)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", f.Engine, f.Database, f.GraphID, f.Operation, hex.EncodeToString(h.Sum(nil)))
}

// prefix is the (engine, database, graphID) portion of the key, used to
// invalidate every cached operation for one graph after a write.
func (f Fingerprint) prefix() string {
	return fmt.Sprintf("%s|%s|%s|", f.Engine, f.Database, f.GraphID)
}

type entry struct {
	Snapshot  []byte
	ExpiresAt time.Time
}

// Stats is the point-in-time counter snapshot exposed on the cache-stats
// endpoint.
type Stats struct {
	CachedEntries int64 `json:"cached_entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Bypasses      int64 `json:"bypasses"`
}

// Config controls the cache's bound and default TTL.
type Config struct {
	MaxEntries int
	TTL        time.Duration
}

// Cache is the result cache. Safe for concurrent use; the LRU is already
// internally mutex-protected and the single-flight group is concurrency-safe
// by construction, so no additional package-level lock is needed.
type Cache struct {
	lru    *lru.Cache[string, *entry]
	group  singleflight.Group
	ttl    time.Duration
	logger *slog.Logger

	hits      int64
	misses    int64
	bypasses  int64
}

// New builds a Cache bounded to cfg.MaxEntries, with cfg.TTL as the default
// entry lifetime.
func New(cfg Config, logger *slog.Logger) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("cache: MaxEntries must be positive, got %d", cfg.MaxEntries)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cache: TTL must be positive, got %v", cfg.TTL)
	}
	l, err := lru.New[string, *entry](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("cache: building LRU: %w", err)
	}
	return &Cache{lru: l, ttl: cfg.TTL, logger: logger}, nil
}

// Get returns the cached snapshot for fp, if present and unexpired.
func (c *Cache) Get(fp Fingerprint) (snapshot []byte, hit bool) {
	key := fp.String()
	e, ok := c.lru.Get(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if time.Now().After(e.ExpiresAt) {
		c.lru.Remove(key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return e.Snapshot, true
}

// LoadFunc produces a fresh snapshot on a cache miss, plus whether that
// snapshot may be stored. A snapshot is stored only when cacheable is true
// and err is nil.
type LoadFunc func() (snapshot []byte, cacheable bool, err error)

// GetOrLoad returns the cached snapshot for fp if present; otherwise it
// calls loadFn, coalescing concurrent misses on the same fingerprint into a
// single upstream call via singleflight.
func (c *Cache) GetOrLoad(ctx context.Context, fp Fingerprint, loadFn LoadFunc) (snapshot []byte, hit bool, err error) {
	if snap, ok := c.Get(fp); ok {
		return snap, true, nil
	}

	key := fp.String()
	v, err, _ := c.group.Do(key, func() (any, error) {
		snap, cacheable, err := loadFn()
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.put(key, snap)
		}
		return snap, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Bypass always calls loadFn and refreshes the cache entry, for the
// ?nocache=true request path. It still records the result
// as a miss-equivalent "bypass" rather than a hit or a miss.
func (c *Cache) Bypass(ctx context.Context, fp Fingerprint, loadFn LoadFunc) (snapshot []byte, err error) {
	atomic.AddInt64(&c.bypasses, 1)
	snap, cacheable, err := loadFn()
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.put(fp.String(), snap)
	}
	return snap, nil
}

func (c *Cache) put(key string, snapshot []byte) {
	c.lru.Add(key, &entry{Snapshot: snapshot, ExpiresAt: time.Now().Add(c.ttl)})
}

// InvalidatePrefix removes every cached entry sharing the given
// (engine, database, graphID) triple. CreateGraph/DeleteGraph/RecountGraph
// call this after a successful write so stale snapshots are never served.
func (c *Cache) InvalidatePrefix(engineName, database, graphID string) {
	prefix := Fingerprint{Engine: engineName, Database: database, GraphID: graphID}.prefix()
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
	c.logger.Debug("cache invalidated", "engine", engineName, "database", database, "graph_id", graphID)
}

// Stats returns the current counter snapshot.
func (c *Cache) Stats() Stats {
	return Stats{
		CachedEntries: int64(c.lru.Len()),
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Bypasses:      atomic.LoadInt64(&c.bypasses),
	}
}
