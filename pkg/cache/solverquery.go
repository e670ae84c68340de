package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/archsymex/symex/pkg/redis"
)

// QueryKind distinguishes the two memoizable solver query shapes spec.md
// §4.1 defines: a yes/no satisfiability check and a bounded value
// enumeration.
type QueryKind string

const (
	QueryIsSat     QueryKind = "is_sat"
	QueryGetValues QueryKind = "get_values"
)

// SolverCache memoizes is_sat/get_values results for the duration of a
// single run. Entries are namespaced by RunID and carry a TTL bounded to
// the run's wall clock, so nothing a cache holds can leak into, or be
// read by, a later run - the engine never reopens cross-run persistence
// by way of this cache.
type SolverCache struct {
	run   string
	local Cache
	redis redis.Redis // nil when no distributed backing is configured
	ttl   time.Duration
}

// NewSolverCache builds a cache scoped to runID, backed by an in-process
// LRU and, when redisClient is non-nil, additionally mirrored into Redis
// so multiple engine processes analyzing the same run can share solver
// query results. ttl bounds every entry's lifetime.
func NewSolverCache(runID string, capacity int, redisClient redis.Redis, ttl time.Duration) *SolverCache {
	return &SolverCache{
		run:   runID,
		local: NewLRUCache(WithCapacity(capacity), WithDefaultTTL(ttl)),
		redis: redisClient,
		ttl:   ttl,
	}
}

func (c *SolverCache) key(kind QueryKind, fingerprint string) string {
	return fmt.Sprintf("symex:%s:%s:%s", c.run, kind, fingerprint)
}

// Lookup returns a previously cached result for (kind, fingerprint). The
// fingerprint is caller-supplied (a hash of the expression(s) and, for
// get_values, the bound k) since only pkg/smt knows how to serialize an
// Expression deterministically.
func (c *SolverCache) Lookup(ctx context.Context, kind QueryKind, fingerprint string, out interface{}) (bool, error) {
	key := c.key(kind, fingerprint)

	if v, ok := c.local.Get(key); ok {
		return true, json.Unmarshal(v.([]byte), out)
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key)
		if err != nil {
			return false, nil // treat a miss/backend error as a plain cache miss
		}
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			return false, err
		}
		_ = c.local.Set(key, []byte(raw), c.ttl)
		return true, nil
	}

	return false, nil
}

// Store records a result for (kind, fingerprint), overwriting any prior
// entry.
func (c *SolverCache) Store(ctx context.Context, kind QueryKind, fingerprint string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	key := c.key(kind, fingerprint)
	if err := c.local.Set(key, raw, c.ttl); err != nil {
		return err
	}
	if c.redis != nil {
		return c.redis.Set(ctx, key, string(raw), c.ttl)
	}
	return nil
}

// Stats reports the local tier's hit/miss counters; the distributed tier
// (if any) does not expose per-namespace stats.
func (c *SolverCache) Stats() Stats { return c.local.Stats() }
