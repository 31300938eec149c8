package factors

import (
	"fmt"
	"math"
	"sort"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/nutrition"
)

type timedMeal struct {
	index  int
	minute int
	timed  bool
}

// chronological returns meal indexes in time order; unparseable times go last.
func chronological(meals []day.Meal) []timedMeal {
	out := make([]timedMeal, 0, len(meals))
	for i, m := range meals {
		minute, ok := day.ParseClock(m.Time)
		out = append(out, timedMeal{index: i, minute: minute, timed: ok})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].timed != out[j].timed {
			return out[i].timed
		}
		return out[i].minute < out[j].minute
	})
	return out
}

// IntakeThreshold is the running intake ratio after which meals are
// penalised, depending on the goal.
func (c MealsConfig) IntakeThreshold(p day.Profile) float64 {
	switch p.Goal {
	case day.GoalDeficit:
		if p.TargetRange.Max > 0 {
			return p.TargetRange.Max
		}
	case day.GoalSurplus:
		return c.SurplusThreshold
	}
	return c.MaintainThreshold
}

func (c MealsConfig) circadian(minute int) float64 {
	for _, b := range c.Circadian {
		if minute >= b.Start && minute < b.End {
			return b.Multiplier
		}
	}
	return c.DefaultMultiplier
}

// mealWeight maps a meal evaluation to its raw weight before the calorie
// penalty.
func (c MealsConfig) mealWeight(ev nutrition.Evaluation, minute int) (float64, string) {
	if ev.MaxHarm >= c.UnsafeHarm {
		return c.ViolationWeight, "unsafe item"
	}
	if minute >= c.CutoffMinute {
		return c.ViolationWeight, "meal after cutoff"
	}
	quality := Clamp(100-ev.Harm*c.HarmScale, 0, 100)
	raw := c.QualityFloor + c.QualitySpan*quality/100
	mult := c.circadian(minute)
	if raw > 0 {
		raw *= mult
	} else {
		raw *= 2 - mult
	}
	return raw, "poor meal quality"
}

func (s *Scorer) scoreMeals(in Input, res *Result) {
	cfg := s.cfg.Meals
	rec := in.Record
	res.Intake.MealCalories = make([]float64, len(rec.Meals))
	res.Intake.MealMinutes = make([]int, len(rec.Meals))
	if len(rec.Meals) == 0 {
		return
	}

	_, days := s.samples(in.Window, func(r *day.Record) float64 { return float64(len(r.Meals)) })
	conf := s.cfg.ConfidenceFor(days)
	threshold := cfg.IntakeThreshold(in.Profile)

	var running float64
	for _, tm := range chronological(rec.Meals) {
		meal := rec.Meals[tm.index]
		res.Intake.MealMinutes[tm.index] = -1
		if len(meal.Items) == 0 {
			continue
		}
		ev := nutrition.Evaluate(s.lookup, meal.Items, cfg.UnknownHarm)
		running += ev.Calories
		res.Intake.MealCalories[tm.index] = ev.Calories
		unsafe := ev.MaxHarm >= cfg.UnsafeHarm
		if unsafe {
			res.Intake.Unsafe = true
		}
		if !tm.timed {
			continue
		}
		res.Intake.MealMinutes[tm.index] = tm.minute
		if unsafe && tm.minute < cfg.NightEndMinute {
			res.Intake.NightUnsafe = true
		}

		raw, reason := cfg.mealWeight(ev, tm.minute)
		if ratio := in.Profile.IntakeRatio(running); threshold > 0 && ratio > threshold {
			raw -= cfg.PenaltyScale * math.Tanh((ratio-threshold)*cfg.PenaltySlope)
			reason = "calorie overshoot"
		}
		w := res.add(CategoryMeals, raw, conf)
		label := fmt.Sprintf("Meal at %s (%.0f kcal)", day.FormatClock(tm.minute), ev.Calories)
		res.Events = append(res.Events, timedEvent(CategoryMeals, tm.minute, w, label, reason))
	}
	res.Intake.Calories = running
	res.Intake.Ratio = in.Profile.IntakeRatio(running)
}
