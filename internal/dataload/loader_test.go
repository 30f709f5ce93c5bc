package dataload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chartfeed/chartfeed/models"
)

func TestGenerateDeterministicAndAligned(t *testing.T) {
	end := time.Date(2023, 11, 15, 12, 34, 56, 0, time.UTC)

	a := Generate("EURUSD", 2, 5, end)
	b := Generate("EURUSD", 2, 5, end)
	if len(a) != 2*24*12 {
		t.Fatalf("got %d bars, want %d", len(a), 2*24*12)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("generation not deterministic at bar %d", i)
		}
	}

	other := Generate("GBPUSD", 2, 5, end)
	if a[0] == other[0] {
		t.Fatal("different symbols should produce different walks")
	}

	for i, bar := range a {
		if bar.Time%300 != 0 {
			t.Fatalf("bar %d not aligned to 5-min grid: %d", i, bar.Time)
		}
		if i > 0 && bar.Time != a[i-1].Time+300 {
			t.Fatalf("bar %d not contiguous", i)
		}
		if bar.High < bar.Open || bar.High < bar.Close || bar.Low > bar.Open || bar.Low > bar.Close {
			t.Fatalf("bar %d OHLC malformed: %+v", i, bar)
		}
		if bar.Volume < 0 {
			t.Fatalf("bar %d negative volume", i)
		}
	}
}

func TestLoadSymbolFromFile(t *testing.T) {
	dir := t.TempDir()
	body := `[{"time": 1700000000, "open": 1.0, "high": 1.5, "low": 0.9, "close": 1.2, "volume": 42}]`
	if err := os.WriteFile(filepath.Join(dir, "EURUSD.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(dir, 5, nil)
	bars := l.LoadSymbol(context.Background(), "EURUSD")
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
	want := models.Bar{Time: 1700000000, Open: 1.0, High: 1.5, Low: 0.9, Close: 1.2, Volume: 42}
	if bars[0] != want {
		t.Fatalf("got %+v, want %+v", bars[0], want)
	}
}

func TestLoadSymbolFallsBackToSynthetic(t *testing.T) {
	l := New(t.TempDir(), 5, nil)
	bars := l.LoadSymbol(context.Background(), "NOFILE")
	if len(bars) == 0 {
		t.Fatal("synthetic fallback produced no bars")
	}
}

type failingRemote struct{}

func (failingRemote) Fetch(context.Context, string) ([]models.Bar, error) {
	return nil, errors.New("boom")
}

type fixedRemote struct{ bars []models.Bar }

func (r fixedRemote) Fetch(context.Context, string) ([]models.Bar, error) {
	return r.bars, nil
}

func TestLoadSymbolRemotePreferredAndFallsThrough(t *testing.T) {
	dir := t.TempDir()
	body := `[{"time": 1700000000, "close": 2.0}]`
	if err := os.WriteFile(filepath.Join(dir, "EURUSD.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	remoteBars := []models.Bar{{Time: 1700000300, Close: 9.0}}
	l := New(dir, 5, fixedRemote{bars: remoteBars})
	bars := l.LoadSymbol(context.Background(), "EURUSD")
	if len(bars) != 1 || bars[0].Close != 9.0 {
		t.Fatalf("remote source should win: %+v", bars)
	}

	l = New(dir, 5, failingRemote{})
	bars = l.LoadSymbol(context.Background(), "EURUSD")
	if len(bars) != 1 || bars[0].Close != 2.0 {
		t.Fatalf("failed remote should fall through to file: %+v", bars)
	}
}
