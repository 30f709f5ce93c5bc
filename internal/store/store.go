package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/chartfeed/chartfeed/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store holds the canonical base-resolution bar series per symbol plus the
// symbol metadata registry. Series are loaded once at startup and never
// mutated afterwards, so reads need no locking; only the metadata registry
// takes a mutex, since the admin path may register symbols while the
// service runs.
type Store struct {
	baseMinutes int
	series      map[string][]models.Bar

	mu      sync.RWMutex
	symbols map[string]models.SymbolInfo

	logger zerolog.Logger
}

// New creates an empty store for the given base resolution in minutes.
func New(baseMinutes int) *Store {
	return &Store{
		baseMinutes: baseMinutes,
		series:      make(map[string][]models.Bar),
		symbols:     make(map[string]models.SymbolInfo),
		logger:      log.With().Str("component", "store").Logger(),
	}
}

// BaseMinutes returns the base resolution in minutes.
func (s *Store) BaseMinutes() int {
	return s.baseMinutes
}

// Load installs a symbol's canonical series and registers the symbol. Bars
// must already be sorted ascending by time (the normalizer guarantees
// this). Load is a startup-time operation, not safe against concurrent
// readers of the same symbol.
func (s *Store) Load(symbol string, bars []models.Bar) {
	s.series[symbol] = bars
	s.Register(models.SymbolInfo{Symbol: symbol})
	s.logger.Info().Str("symbol", symbol).Int("bars", len(bars)).Msg("series loaded")
}

// Series returns a symbol's full base-resolution series.
func (s *Store) Series(symbol string) ([]models.Bar, bool) {
	bars, ok := s.series[symbol]
	return bars, ok
}

// RangeFilter returns the bars with from <= time <= to, inclusive both
// ends. An absent symbol or series yields an empty slice, never an error;
// the caller decides whether the symbol itself is unknown.
func (s *Store) RangeFilter(symbol string, from, to int64) []models.Bar {
	bars, ok := s.series[symbol]
	if !ok || len(bars) == 0 || from > to {
		return nil
	}

	lo := sort.Search(len(bars), func(i int) bool { return bars[i].Time >= from })
	hi := sort.Search(len(bars), func(i int) bool { return bars[i].Time > to })
	if lo >= hi {
		return nil
	}
	return bars[lo:hi]
}

// Tail returns the most recent n base bars for a symbol, used by the
// empty-range fallback path.
func (s *Store) Tail(symbol string, n int) []models.Bar {
	bars, ok := s.series[symbol]
	if !ok || n <= 0 {
		return nil
	}
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

// Register adds or updates symbol metadata. Registering a symbol with no
// backing series is allowed; queries for it answer "no data".
func (s *Store) Register(info models.SymbolInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.symbols[info.Symbol]; ok {
		// Keep previously registered metadata fields that the update
		// leaves blank.
		if info.Name == "" {
			info.Name = existing.Name
		}
		if info.Exchange == "" {
			info.Exchange = existing.Exchange
		}
		if info.Type == "" {
			info.Type = existing.Type
		}
		if info.Description == "" {
			info.Description = existing.Description
		}
	}
	s.symbols[info.Symbol] = info
}

// Known reports whether a symbol has been registered or loaded.
func (s *Store) Known(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.symbols[symbol]
	return ok
}

// List returns all registered symbols sorted by ticker.
func (s *Store) List() []models.SymbolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SymbolInfo, 0, len(s.symbols))
	for _, info := range s.symbols {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Search returns symbols whose ticker or name contains the query,
// case-insensitive. An empty query matches everything.
func (s *Store) Search(query string) []models.SymbolInfo {
	q := strings.ToLower(query)
	out := make([]models.SymbolInfo, 0)
	for _, info := range s.List() {
		if q == "" ||
			strings.Contains(strings.ToLower(info.Symbol), q) ||
			strings.Contains(strings.ToLower(info.Name), q) {
			out = append(out, info)
		}
	}
	return out
}
