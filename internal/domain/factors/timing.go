package factors

import (
	"fmt"
	"math"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/timing"
)

// LastMealMinute returns the latest timed meal of a record.
func LastMealMinute(r *day.Record) (int, bool) {
	if r == nil {
		return 0, false
	}
	last, found := 0, false
	for _, m := range r.Meals {
		if minute, ok := day.ParseClock(m.Time); ok && len(m.Items) > 0 && (!found || minute > last) {
			last, found = minute, true
		}
	}
	return last, found
}

func (s *Scorer) scoreTiming(in Input, res *Result) {
	cfg := s.cfg.Timing
	rec := in.Record
	if s.analyzer == nil || rec.LoggedMeals() == 0 {
		return
	}
	meals := make([]day.Meal, 0, len(rec.Meals))
	kcal := make([]float64, 0, len(rec.Meals))
	for i, m := range rec.Meals {
		if len(m.Items) == 0 {
			continue
		}
		meals = append(meals, m)
		kcal = append(kcal, res.Intake.MealCalories[i])
	}
	analysis, ok := timing.Safe(s.analyzer, timing.Input{
		Meals:     meals,
		Trainings: rec.Trainings,
		Profile:   in.Profile,
		Calories:  kcal,
	})
	if !ok {
		return
	}
	res.TimingAvailable = true

	_, days := s.samples(in.Window, func(r *day.Record) float64 { return float64(len(r.Meals)) })
	conf := s.cfg.ConfidenceFor(days)

	if len(analysis.Overlaps) > 0 {
		var penalty float64
		for _, o := range analysis.Overlaps {
			penalty -= cfg.OverlapPenalty * Sigmoid((o.Minutes-cfg.OverlapPivot)/cfg.OverlapScale)
		}
		w := res.add(CategoryTiming, penalty, conf)
		label := fmt.Sprintf("%d overlapping meal responses", len(analysis.Overlaps))
		res.Events = append(res.Events, untimedEvent(CategoryTiming, s.cfg.Keys.Timing, w, label, "meals too close together"))
	}
	if len(analysis.Gaps) > 0 {
		var bonus float64
		for _, g := range analysis.Gaps {
			if g.Minutes <= 0 {
				continue
			}
			bonus += math.Min(cfg.GapGain*math.Log2(1+g.Minutes/cfg.GapUnit), cfg.GapCap)
		}
		if bonus > 0 {
			w := res.add(CategoryTiming, bonus, conf)
			label := fmt.Sprintf("%d clean meal gaps", len(analysis.Gaps))
			res.Events = append(res.Events, untimedEvent(CategoryTiming, s.cfg.Keys.Timing, w, label, ""))
		}
	}

	first, hasFirst := -1, false
	for _, minute := range res.Intake.MealMinutes {
		if minute >= 0 && (!hasFirst || minute < first) {
			first, hasFirst = minute, true
		}
	}

	// Post-training window: one bonus for a meal starting soon after a session ends.
anabolic:
	for _, sess := range res.Sessions {
		if !sess.Timed {
			continue
		}
		for _, minute := range res.Intake.MealMinutes {
			if minute < 0 {
				continue
			}
			since := float64(minute - sess.End)
			if since >= 0 && since <= cfg.AnabolicWindow {
				w := res.add(CategoryTiming, cfg.AnabolicBonus, conf)
				res.Events = append(res.Events, timedEvent(CategoryTiming, minute, w, "Post-training meal", ""))
				break anabolic
			}
		}
	}

	if !hasFirst {
		return
	}
	if last, ok := LastMealMinute(in.Window.Ago(1)); ok {
		fast := float64(24*60-last+first) / 60.0
		if fast >= cfg.NightFastHours {
			w := res.add(CategoryTiming, cfg.NightFastBonus, conf)
			label := fmt.Sprintf("Overnight fast %.1f h", fast)
			res.Events = append(res.Events, timedEvent(CategoryTiming, first, w, label, ""))
		}
	}
}
