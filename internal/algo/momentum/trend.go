package momentum

import (
	"time"

	"github.com/sawpanic/cascade/internal/domain/history"
)

// CalculateTrend compares the mean of the RecentDays most recent entries
// with the mean of the next OlderDays entries, skipping days without one.
// Without at least one older entry the trend is flat.
func (mc *MomentumCore) CalculateTrend(h history.History, today time.Time) Trend {
	cfg := mc.config.Trend
	vals := latestValues(h, today, mc.config.WindowDays, cfg.RecentDays+cfg.OlderDays)
	if len(vals) <= cfg.RecentDays {
		return TrendFlat
	}

	diff := mean(vals[:cfg.RecentDays]) - mean(vals[cfg.RecentDays:])
	switch {
	case diff > cfg.Threshold:
		return TrendUp
	case diff < -cfg.Threshold:
		return TrendDown
	default:
		return TrendFlat
	}
}

// CalculatePeakDays counts consecutive days at or above the peak threshold,
// ending today or, when today has no entry yet, yesterday.
func (mc *MomentumCore) CalculatePeakDays(h history.History, today time.Time) int {
	start := 0
	if _, ok := h.Get(today); !ok {
		start = 1
	}

	streak := 0
	for i := start; i < mc.config.WindowDays; i++ {
		v, ok := h.Get(today.AddDate(0, 0, -i))
		if !ok || v < mc.config.PeakThreshold {
			break
		}
		streak++
	}
	return streak
}

// latestValues returns up to limit entries within window days of today,
// newest first.
func latestValues(h history.History, today time.Time, window, limit int) []float64 {
	out := make([]float64, 0, limit)
	for i := 0; i < window && len(out) < limit; i++ {
		if v, ok := h.Get(today.AddDate(0, 0, -i)); ok {
			out = append(out, v)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
