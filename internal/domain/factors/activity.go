package factors

import (
	"fmt"
	"math"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// StepsGoal is the adaptive daily goal from the personal step median.
func (c StepsConfig) StepsGoal(samples []float64, minSamples int) float64 {
	goal := c.DefaultGoal
	if len(samples) >= minSamples {
		goal = Median(samples) * c.GoalFactor
	}
	return math.Max(goal, c.MinGoal)
}

// StepsWeight maps steps/goal through the tanh curve.
func (c StepsConfig) StepsWeight(steps, goal float64) float64 {
	ratio := steps / goal
	return Clamp(math.Tanh((ratio-c.Pivot)*c.Slope)+c.Offset, c.Min, c.Max)
}

func (s *Scorer) scoreSteps(in Input, res *Result) {
	cfg := s.cfg.Steps
	steps := in.Record.Steps
	if steps <= 0 {
		return
	}
	samples, days := s.samples(in.Window, func(r *day.Record) float64 { return float64(r.Steps) })
	conf := s.cfg.ConfidenceFor(days)
	goal := cfg.StepsGoal(samples, s.cfg.MinBaselineSamples)

	w := res.add(CategorySteps, cfg.StepsWeight(float64(steps), goal), conf)
	label := fmt.Sprintf("%d steps (goal %.0f)", steps, goal)
	res.Events = append(res.Events, untimedEvent(CategorySteps, s.cfg.Keys.Steps, w, label, "low step count"))
}

// HouseholdWeight is the log2 ratio curve against the personal baseline.
func (c HouseholdConfig) HouseholdWeight(minutes, baseline float64) float64 {
	if baseline <= 0 {
		baseline = c.DefaultMinutes
	}
	return Clamp(c.Base+c.Gain*math.Log2(minutes/baseline), c.Min, c.Max)
}

func (s *Scorer) scoreHousehold(in Input, res *Result) {
	cfg := s.cfg.Household
	minutes := in.Record.HouseholdMinutes
	if minutes <= 0 {
		return
	}
	samples, days := s.samples(in.Window, func(r *day.Record) float64 { return r.HouseholdMinutes })
	conf := s.cfg.ConfidenceFor(days)
	baseline := s.cfg.Baseline(samples, cfg.DefaultMinutes)

	w := res.add(CategoryHousehold, cfg.HouseholdWeight(minutes, baseline), conf)
	label := fmt.Sprintf("Household activity %.0f min", minutes)
	res.Events = append(res.Events, untimedEvent(CategoryHousehold, s.cfg.Keys.Household, w, label, "little household activity"))
}

// MeasurementsWeight rewards completeness.
func (c MeasurementsConfig) MeasurementsWeight(n int) float64 {
	return math.Min(c.Base+c.PerItem*float64(n), c.Max)
}

func (s *Scorer) scoreMeasurements(in Input, res *Result) {
	n := in.Record.RecordedMeasurements()
	if n == 0 {
		return
	}
	_, days := s.samples(in.Window, func(r *day.Record) float64 { return float64(r.RecordedMeasurements()) })
	conf := s.cfg.ConfidenceFor(days)

	w := res.add(CategoryMeasurements, s.cfg.Measurements.MeasurementsWeight(n), conf)
	label := fmt.Sprintf("%d body measurements", n)
	res.Events = append(res.Events, untimedEvent(CategoryMeasurements, s.cfg.Keys.Measurements, w, label, ""))
}

func adherence(r *day.Record) float64 {
	if r.SupplementsPlanned <= 0 {
		return 0
	}
	return math.Min(float64(r.SupplementsTaken)/float64(r.SupplementsPlanned), 1)
}

// SupplementsWeight is the linear adherence curve against the baseline.
func (c SupplementsConfig) SupplementsWeight(ratio, baseline float64) float64 {
	return Clamp(c.Gain*ratio+c.BaselineGain*(ratio-baseline)+c.Offset, c.Min, c.Max)
}

func (s *Scorer) scoreSupplements(in Input, res *Result) {
	cfg := s.cfg.Supplements
	rec := in.Record
	if rec.SupplementsPlanned <= 0 {
		return
	}
	samples, days := s.samples(in.Window, adherence)
	conf := s.cfg.ConfidenceFor(days)
	baseline := s.cfg.Baseline(samples, cfg.DefaultAdherence)

	w := res.add(CategorySupplements, cfg.SupplementsWeight(adherence(rec), baseline), conf)
	label := fmt.Sprintf("Supplements %d/%d", rec.SupplementsTaken, rec.SupplementsPlanned)
	res.Events = append(res.Events, untimedEvent(CategorySupplements, s.cfg.Keys.Supplements, w, label, "missed supplements"))
}
