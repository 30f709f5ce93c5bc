package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/chartfeed/chartfeed/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Shape identifies which of the accepted raw-input layouts a payload uses.
type Shape int

const (
	// ShapeRecords is a plain list of record objects.
	ShapeRecords Shape = iota
	// ShapeColumnar is an object of parallel arrays keyed by field name,
	// indexed together; its "time" value is itself a list.
	ShapeColumnar
	// ShapeWrapped is an object exposing the record list under "data" or
	// "bars".
	ShapeWrapped
	// ShapeUnknown is anything else; it normalizes to an empty series.
	ShapeUnknown
)

// minValidTime is 2000-01-01T00:00:00Z. Anything earlier is treated as
// corrupt source data.
const minValidTime int64 = 946684800

// msThreshold separates second-scale from millisecond-scale timestamps.
const msThreshold = 10_000_000_000

// Field synonyms, tried in order.
var (
	timeKeys   = []string{"time", "timestamp", "t", "date"}
	openKeys   = []string{"open", "o"}
	highKeys   = []string{"high", "h"}
	lowKeys    = []string{"low", "l"}
	closeKeys  = []string{"close", "c"}
	volumeKeys = []string{"volume", "v"}
)

var stringLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalizer converts heterogeneous raw bar payloads into canonical
// ascending-by-time bar sequences. Records that cannot be parsed are
// dropped one at a time; a bad record never aborts the rest of the load.
type Normalizer struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a Normalizer using the wall clock for the far-future bound.
func New() *Normalizer {
	return &Normalizer{
		logger: log.With().Str("component", "normalizer").Logger(),
		now:    time.Now,
	}
}

// NewWithClock creates a Normalizer with an injected clock.
func NewWithClock(now func() time.Time) *Normalizer {
	n := New()
	n.now = now
	return n
}

// DetectShape classifies a raw payload into one of the accepted layouts.
func DetectShape(raw any) Shape {
	switch v := raw.(type) {
	case []any:
		return ShapeRecords
	case map[string]any:
		if _, ok := v["time"].([]any); ok {
			return ShapeColumnar
		}
		if _, ok := v["data"].([]any); ok {
			return ShapeWrapped
		}
		if _, ok := v["bars"].([]any); ok {
			return ShapeWrapped
		}
		return ShapeUnknown
	default:
		return ShapeUnknown
	}
}

// Series normalizes a whole raw payload into a canonical bar sequence,
// sorted ascending by time. Ties keep input order; duplicates are kept.
func (n *Normalizer) Series(raw any) []models.Bar {
	var bars []models.Bar

	switch DetectShape(raw) {
	case ShapeRecords:
		bars = n.records(raw.([]any))
	case ShapeColumnar:
		bars = n.columnar(raw.(map[string]any))
	case ShapeWrapped:
		m := raw.(map[string]any)
		list, ok := m["data"].([]any)
		if !ok {
			list, _ = m["bars"].([]any)
		}
		bars = n.records(list)
	default:
		n.logger.Warn().Msg("unrecognized raw payload shape, nothing normalized")
		return nil
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	return bars
}

func (n *Normalizer) records(list []any) []models.Bar {
	bars := make([]models.Bar, 0, len(list))
	dropped := 0
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		bar, err := n.Record(rec)
		if err != nil {
			dropped++
			continue
		}
		bars = append(bars, bar)
	}
	if dropped > 0 {
		n.logger.Debug().Int("dropped", dropped).Int("kept", len(bars)).Msg("rejected unparsable records")
	}
	return bars
}

// columnar rebuilds per-index records from parallel arrays and runs them
// through the same per-record path. Columns shorter than the time column
// just leave those fields at their defaults.
func (n *Normalizer) columnar(m map[string]any) []models.Bar {
	times, _ := m["time"].([]any)

	col := func(keys []string) []any {
		for _, k := range keys {
			if arr, ok := m[k].([]any); ok {
				return arr
			}
		}
		return nil
	}
	opens := col(openKeys)
	highs := col(highKeys)
	lows := col(lowKeys)
	closes := col(closeKeys)
	volumes := col(volumeKeys)

	at := func(arr []any, i int) (any, bool) {
		if i < len(arr) {
			return arr[i], true
		}
		return nil, false
	}

	bars := make([]models.Bar, 0, len(times))
	dropped := 0
	for i := range times {
		rec := map[string]any{"time": times[i]}
		if v, ok := at(opens, i); ok {
			rec["open"] = v
		}
		if v, ok := at(highs, i); ok {
			rec["high"] = v
		}
		if v, ok := at(lows, i); ok {
			rec["low"] = v
		}
		if v, ok := at(closes, i); ok {
			rec["close"] = v
		}
		if v, ok := at(volumes, i); ok {
			rec["volume"] = v
		}
		bar, err := n.Record(rec)
		if err != nil {
			dropped++
			continue
		}
		bars = append(bars, bar)
	}
	if dropped > 0 {
		n.logger.Debug().Int("dropped", dropped).Msg("rejected columnar rows")
	}
	return bars
}

// Record normalizes one raw record. Missing prices default to 0, missing
// volume to 0; only the timestamp can reject a record.
func (n *Normalizer) Record(rec map[string]any) (models.Bar, error) {
	ts, err := n.timestamp(rec)
	if err != nil {
		return models.Bar{}, err
	}

	return models.Bar{
		Time:   ts,
		Open:   floatField(rec, openKeys),
		High:   floatField(rec, highKeys),
		Low:    floatField(rec, lowKeys),
		Close:  floatField(rec, closeKeys),
		Volume: intField(rec, volumeKeys),
	}, nil
}

func (n *Normalizer) timestamp(rec map[string]any) (int64, error) {
	var raw any
	found := false
	for _, k := range timeKeys {
		if v, ok := rec[k]; ok {
			raw = v
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("record has no timestamp field")
	}

	ts, err := toEpochSeconds(raw)
	if err != nil {
		return 0, err
	}

	maxValidTime := n.now().Add(24 * time.Hour).Unix()
	if ts < minValidTime || ts > maxValidTime {
		return 0, fmt.Errorf("timestamp %d outside valid range", ts)
	}
	return ts, nil
}

// toEpochSeconds converts a raw timestamp value to whole epoch seconds.
// Numeric values above the ms threshold are taken as milliseconds; string
// values are parsed as calendar dates.
func toEpochSeconds(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t > msThreshold {
			return int64(t) / 1000, nil
		}
		return int64(t), nil
	case int64:
		if t > msThreshold {
			return t / 1000, nil
		}
		return t, nil
	case int:
		if int64(t) > msThreshold {
			return int64(t) / 1000, nil
		}
		return int64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return toEpochSeconds(f)
	case string:
		for _, layout := range stringLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC().Unix(), nil
			}
		}
		// Numeric timestamps sometimes arrive stringified.
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return toEpochSeconds(f)
		}
		return 0, fmt.Errorf("unparsable timestamp %q", t)
	default:
		return 0, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func floatField(rec map[string]any, keys []string) float64 {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t
		case int:
			return float64(t)
		case int64:
			return float64(t)
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func intField(rec map[string]any, keys []string) int64 {
	return int64(floatField(rec, keys))
}
