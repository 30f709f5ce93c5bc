package engine

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chartfeed/chartfeed/internal/replay"
	"github.com/chartfeed/chartfeed/internal/resample"
	"github.com/chartfeed/chartfeed/internal/store"
	"github.com/chartfeed/chartfeed/models"
)

// ErrUnknownSymbol is the only true error a query can produce; every
// known-symbol outcome is a status, not an error.
var ErrUnknownSymbol = errors.New("unknown symbol")

// fallbackBars is how many of the most recent base bars a query falls back
// to when its window filters down to nothing.
const fallbackBars = 100

// Engine ties the store, resampler and replay cache together behind the
// query surface. It holds no state of its own beyond references to its
// parts, so a fresh Engine per test is cheap.
type Engine struct {
	store  *store.Store
	cache  *replay.Cache
	logger zerolog.Logger
}

// New creates an engine over a store and a replay cache.
func New(s *store.Store, c *replay.Cache) *Engine {
	return &Engine{
		store:  s,
		cache:  c,
		logger: log.With().Str("component", "engine").Logger(),
	}
}

// Query serves bars for a symbol at the requested resolution over
// [from, to]. Replay-mode queries consult and populate the cache; the key
// is the exact (symbol, resolution, from, to) tuple.
//
// An empty window on a known symbol falls back to the most recent 100 base
// bars and still answers ok; clients signal empty-range requests this way
// rather than receiving an error.
func (e *Engine) Query(symbol, resolution string, from, to int64, replayMode bool) (models.QueryResult, error) {
	if !e.store.Known(symbol) {
		return models.QueryResult{Status: models.StatusError}, ErrUnknownSymbol
	}

	key := replay.Key{Symbol: symbol, Resolution: resolution, From: from, To: to}
	if replayMode {
		if res, ok := e.cache.Get(key); ok {
			return res, nil
		}
	}

	bars := e.store.RangeFilter(symbol, from, to)
	if len(bars) == 0 {
		bars = e.store.Tail(symbol, fallbackBars)
	}
	if len(bars) == 0 {
		return models.QueryResult{Status: models.StatusNoData}, nil
	}

	out := resample.Resample(bars, resolution, e.store.BaseMinutes())
	if len(out) == 0 {
		return models.QueryResult{Status: models.StatusNoData}, nil
	}

	res := models.QueryResult{Status: models.StatusOK, Bars: out}
	if replayMode {
		e.cache.Put(key, res)
	}
	return res, nil
}

// CacheEntries exposes the replay cache contents for the admin surface.
func (e *Engine) CacheEntries() []replay.EntryInfo {
	return e.cache.Entries()
}

// ClearCache drops every replay cache entry and reports the count.
func (e *Engine) ClearCache() int {
	return e.cache.Clear()
}
