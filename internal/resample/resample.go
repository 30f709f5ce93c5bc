package resample

import (
	"github.com/chartfeed/chartfeed/models"
)

// Resample aggregates base-resolution bars into bars at the requested
// resolution. Targets at or below the base resolution pass the input
// through unchanged; the engine never derives a finer grain than it was
// given.
//
// Input must be sorted ascending by time: grouping is a single forward
// pass that closes a bucket when the bucket start changes, so unsorted
// input yields incorrect groups.
func Resample(bars []models.Bar, resolution string, baseMinutes int) []models.Bar {
	minutes := models.ResolutionMinutes(resolution)
	if minutes <= baseMinutes {
		return bars
	}
	if len(bars) == 0 {
		return nil
	}

	step := int64(minutes) * 60
	out := make([]models.Bar, 0, len(bars))

	cur := models.Bar{Time: -1}
	for _, b := range bars {
		bucket := b.Time - b.Time%step
		if cur.Time != bucket {
			if cur.Time >= 0 {
				out = append(out, cur)
			}
			cur = models.Bar{
				Time:   bucket,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			}
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	// Trailing group is emitted even when its period is not complete.
	if cur.Time >= 0 {
		out = append(out, cur)
	}
	return out
}
