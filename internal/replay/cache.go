package replay

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chartfeed/chartfeed/models"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartfeed_replay_cache_hits_total",
		Help: "Replay cache lookups that returned a cached payload",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartfeed_replay_cache_misses_total",
		Help: "Replay cache lookups that missed",
	})
	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartfeed_replay_cache_evictions_total",
		Help: "Entries removed by the overflow policy",
	})
)

const (
	maxEntries = 100
	evictBatch = 10

	// Rough wire size of one bar in an entry listing: six 8-byte fields.
	barSizeBytes = 48
)

// Key identifies one replay query exactly. A window shifted by a single
// second is a different key; there is no overlap or partial-hit logic.
type Key struct {
	Symbol     string
	Resolution string
	From       int64
	To         int64
}

// EntryInfo describes one cached entry for the admin surface.
type EntryInfo struct {
	Symbol     string `json:"symbol"`
	Resolution string `json:"resolution"`
	From       int64  `json:"from"`
	To         int64  `json:"to"`
	Bars       int    `json:"bars"`
	SizeBytes  int    `json:"size_bytes"`
}

// Cache memoizes full replay-query payloads, bounded at 100 entries. On
// overflow it drops the 10 entries that were inserted earliest; a Get hit
// does not refresh an entry's position, so eviction follows insertion
// order, not recency.
//
// One mutex covers the whole get/put/evict path; the size check and the
// batch removal must not interleave between concurrent inserts.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]models.QueryResult
	order   []Key
	logger  zerolog.Logger
}

// New creates an empty replay cache.
func New() *Cache {
	return &Cache{
		entries: make(map[Key]models.QueryResult),
		logger:  log.With().Str("component", "replay_cache").Logger(),
	}
}

// Get returns the cached payload for an exact key match.
func (c *Cache) Get(k Key) (models.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[k]
	if ok {
		cacheHits.Inc()
	} else {
		cacheMisses.Inc()
	}
	return res, ok
}

// Put stores a payload under its key, evicting the oldest-inserted batch
// when the cache overflows. Re-putting an existing key replaces the
// payload but keeps the key's original insertion position.
func (c *Cache) Put(k Key, res models.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[k]; !exists {
		c.order = append(c.order, k)
	}
	c.entries[k] = res

	if len(c.entries) <= maxEntries {
		return
	}
	n := evictBatch
	if n > len(c.order) {
		n = len(c.order)
	}
	for _, old := range c.order[:n] {
		delete(c.entries, old)
	}
	c.order = append([]Key(nil), c.order[n:]...)
	cacheEvictions.Add(float64(n))
	c.logger.Debug().Int("evicted", n).Int("size", len(c.entries)).Msg("cache overflow")
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries lists cached entries in insertion order with per-entry bar
// counts and approximate payload sizes.
func (c *Cache) Entries() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EntryInfo, 0, len(c.order))
	for _, k := range c.order {
		res, ok := c.entries[k]
		if !ok {
			continue
		}
		out = append(out, EntryInfo{
			Symbol:     k.Symbol,
			Resolution: k.Resolution,
			From:       k.From,
			To:         k.To,
			Bars:       len(res.Bars),
			SizeBytes:  len(res.Bars) * barSizeBytes,
		})
	}
	return out
}

// Clear removes every entry and reports how many were removed. Safe on an
// empty cache.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[Key]models.QueryResult)
	c.order = nil
	if n > 0 {
		c.logger.Info().Int("removed", n).Msg("replay cache cleared")
	}
	return n
}
