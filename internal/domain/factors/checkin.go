package factors

import (
	"fmt"
	"math"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// CheckInStreak counts consecutive prior days with a recorded weight.
func CheckInStreak(w day.Window) int {
	streak := 0
	for i := 1; i <= w.Len(); i++ {
		r := w.Ago(i)
		if r == nil || r.Weight <= 0 {
			break
		}
		streak++
	}
	return streak
}

// WeightSlope fits kg/day over the last days entries (today included).
// ok is false with fewer than minPoints weigh-ins.
func WeightSlope(today float64, w day.Window, days, minPoints int) (float64, bool) {
	var xs, ys []float64
	if today > 0 {
		xs = append(xs, 0)
		ys = append(ys, today)
	}
	for i := 1; i < days; i++ {
		r := w.Ago(i)
		if r == nil || r.Weight <= 0 {
			continue
		}
		xs = append(xs, -float64(i))
		ys = append(ys, r.Weight)
	}
	if len(xs) < minPoints {
		return 0, false
	}
	return Slope(xs, ys), true
}

func (s *Scorer) scoreCheckIn(in Input, res *Result) {
	cfg := s.cfg.CheckIn
	if in.Record.Weight <= 0 {
		return
	}
	_, days := s.samples(in.Window, func(r *day.Record) float64 { return r.Weight })
	conf := s.cfg.ConfidenceFor(days)

	streak := CheckInStreak(in.Window)
	raw := cfg.Base + math.Min(cfg.StreakStep*float64(streak), cfg.StreakCap)
	if slope, ok := WeightSlope(in.Record.Weight, in.Window, cfg.TrendDays, cfg.MinTrendPoints); ok && math.Abs(slope) <= cfg.StabilitySlope {
		raw += cfg.StabilityBonus
	}

	w := res.add(CategoryCheckIn, raw, conf)
	label := fmt.Sprintf("Weigh-in %.1f kg (streak %d)", in.Record.Weight, streak+1)
	res.Events = append(res.Events, untimedEvent(CategoryCheckIn, s.cfg.Keys.CheckIn, w, label, ""))
}
