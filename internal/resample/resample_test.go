package resample

import (
	"testing"

	"github.com/chartfeed/chartfeed/models"
)

// hourStart is 2023-11-15 00:00:00 UTC, aligned to every supported
// intraday bucket width.
const hourStart int64 = 1700006400

func fiveMinBars(start int64, n int) []models.Bar {
	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		f := float64(i)
		bars = append(bars, models.Bar{
			Time:   start + int64(i)*300,
			Open:   100 + f,
			High:   110 + f,
			Low:    90 - f,
			Close:  105 + f,
			Volume: int64(10 + i),
		})
	}
	return bars
}

func TestResampleHourFromTwelveFiveMinBars(t *testing.T) {
	in := fiveMinBars(hourStart, 12)
	out := Resample(in, "60", 5)

	if len(out) != 1 {
		t.Fatalf("got %d bars, want 1", len(out))
	}
	got := out[0]
	if got.Time != hourStart {
		t.Errorf("time: got %d, want %d", got.Time, hourStart)
	}
	if got.Open != in[0].Open {
		t.Errorf("open: got %v, want first bar's open %v", got.Open, in[0].Open)
	}
	if got.Close != in[11].Close {
		t.Errorf("close: got %v, want last bar's close %v", got.Close, in[11].Close)
	}
	if got.High != in[11].High {
		t.Errorf("high: got %v, want max high %v", got.High, in[11].High)
	}
	if got.Low != in[11].Low {
		t.Errorf("low: got %v, want min low %v", got.Low, in[11].Low)
	}
	var vol int64
	for _, b := range in {
		vol += b.Volume
	}
	if got.Volume != vol {
		t.Errorf("volume: got %d, want sum %d", got.Volume, vol)
	}
}

func TestResamplePassThroughAtOrBelowBase(t *testing.T) {
	in := fiveMinBars(hourStart, 4)
	for _, res := range []string{"5", "1"} {
		out := Resample(in, res, 5)
		if len(out) != len(in) {
			t.Fatalf("resolution %s: got %d bars, want %d", res, len(out), len(in))
		}
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("resolution %s: bar %d changed: %+v vs %+v", res, i, out[i], in[i])
			}
		}
	}
}

func TestResamplePartialTrailingBucket(t *testing.T) {
	// 35 minutes of data is not a full hour; the partial trailing period
	// must still be emitted as one bar.
	in := fiveMinBars(hourStart, 7)
	out := Resample(in, "60", 5)
	if len(out) != 1 {
		t.Fatalf("got %d bars, want 1", len(out))
	}
	if out[0].Close != in[6].Close {
		t.Fatalf("partial bucket close: got %v, want %v", out[0].Close, in[6].Close)
	}
}

func TestResampleMultipleBuckets(t *testing.T) {
	// 90 minutes of 5-min bars starting on an hour boundary: one full
	// hour plus a partial one.
	in := fiveMinBars(hourStart, 18)
	out := Resample(in, "60", 5)
	if len(out) != 2 {
		t.Fatalf("got %d bars, want 2", len(out))
	}
	if out[0].Time != hourStart || out[1].Time != hourStart+3600 {
		t.Fatalf("bucket starts wrong: %d, %d", out[0].Time, out[1].Time)
	}
	if out[0].Open != in[0].Open || out[0].Close != in[11].Close {
		t.Fatalf("first hour OHLC wrong: %+v", out[0])
	}
	if out[1].Open != in[12].Open || out[1].Close != in[17].Close {
		t.Fatalf("second hour OHLC wrong: %+v", out[1])
	}
}

func TestResampleEmptyAndSingle(t *testing.T) {
	if out := Resample(nil, "60", 5); len(out) != 0 {
		t.Fatalf("empty input must give empty output, got %d", len(out))
	}

	in := fiveMinBars(hourStart, 1)
	out := Resample(in, "60", 5)
	if len(out) != 1 {
		t.Fatalf("got %d bars, want 1", len(out))
	}
	b := out[0]
	if b.Open != in[0].Open || b.High != in[0].High || b.Low != in[0].Low || b.Close != in[0].Close {
		t.Fatalf("single-bar OHLC must derive from the one input bar: %+v", b)
	}
}

func TestResampleUnknownResolutionDefaultsToHour(t *testing.T) {
	in := fiveMinBars(hourStart, 12)
	def := Resample(in, "7banana", 5)
	hour := Resample(in, "60", 5)
	if len(def) != len(hour) {
		t.Fatalf("unknown token: got %d bars, want %d", len(def), len(hour))
	}
	for i := range hour {
		if def[i] != hour[i] {
			t.Fatalf("unknown token bar %d differs: %+v vs %+v", i, def[i], hour[i])
		}
	}
}

func TestResolutionMinutesTable(t *testing.T) {
	tests := []struct {
		token string
		want  int
	}{
		{"1", 1}, {"5", 5}, {"15", 15}, {"30", 30}, {"60", 60}, {"240", 240},
		{"1D", 1440}, {"1W", 10080}, {"1M", 43200}, {"bogus", 60},
	}
	for _, tt := range tests {
		if got := models.ResolutionMinutes(tt.token); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.token, got, tt.want)
		}
	}
}
