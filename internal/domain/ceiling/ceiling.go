// Package ceiling estimates the individual cap on momentum from
// consistency, behavioural diversity and data depth.
package ceiling

import (
	"math"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/factors"
)

// Config holds the ceiling coefficients.
type Config struct {
	Base             float64 `yaml:"base"`
	WindowDays       int     `yaml:"window_days"`
	MinSamples       int     `yaml:"min_samples"`
	ConsistencyGain  float64 `yaml:"consistency_gain"`
	ConsistencyCap   float64 `yaml:"consistency_cap"`
	DiversityGain    float64 `yaml:"diversity_gain"`
	DiversityDivisor float64 `yaml:"diversity_divisor"`
	MinActiveDays    int     `yaml:"min_active_days"`
	DepthStep        float64 `yaml:"depth_step"`
	DepthMaxWeeks    int     `yaml:"depth_max_weeks"`
}

// DefaultConfig returns the production coefficients.
func DefaultConfig() Config {
	return Config{
		Base:             0.65,
		WindowDays:       30,
		MinSamples:       5,
		ConsistencyGain:  0.3,
		ConsistencyCap:   0.3,
		DiversityGain:    0.15,
		DiversityDivisor: 10,
		MinActiveDays:    3,
		DepthStep:        0.03,
		DepthMaxWeeks:    4,
	}
}

// Result is the ceiling and its components.
type Result struct {
	Value           float64 `json:"value"`
	Consistency     float64 `json:"consistency"`
	Diversity       float64 `json:"diversity"`
	DataDepth       float64 `json:"data_depth"`
	ActiveFactors   int     `json:"active_factors"`
	DaysWithAnyData int     `json:"days_with_any_data"`
}

// Consistency rewards a low coefficient of variation across the values.
func (c Config) Consistency(values []float64) float64 {
	if len(values) < c.MinSamples {
		return 1
	}
	mean := factors.Mean(values)
	if mean <= 0 {
		return 1
	}
	cv := factors.Stdev(values) / mean
	return 1 + factors.Clamp((1-cv)*c.ConsistencyGain, 0, c.ConsistencyCap)
}

// Diversity rewards the number of regularly used factors.
func (c Config) Diversity(active int) float64 {
	return 1 + float64(active)/c.DiversityDivisor*c.DiversityGain
}

// DataDepth rewards whole weeks of data up to a cap.
func (c Config) DataDepth(days int) float64 {
	weeks := days / 7
	if weeks > c.DepthMaxWeeks {
		weeks = c.DepthMaxWeeks
	}
	return c.DepthStep * float64(weeks)
}

// Estimate computes the ceiling. The span is today plus the trailing
// window; values are every persisted contribution.
func (c Config) Estimate(today *day.Record, w day.Window, values []float64) Result {
	span := make([]*day.Record, 0, c.WindowDays)
	span = append(span, today)
	span = append(span, w.Trailing(c.WindowDays-1)...)

	counts := make(map[factors.Category]int, len(factors.Tracked))
	days := 0
	for _, r := range span {
		if !r.HasActivity() {
			continue
		}
		days++
		for _, cat := range factors.Tracked {
			if Recorded(cat, r) != 0 {
				counts[cat]++
			}
		}
	}
	active := 0
	for _, n := range counts {
		if n >= c.MinActiveDays {
			active++
		}
	}

	res := Result{
		Consistency:     c.Consistency(values),
		Diversity:       c.Diversity(active),
		DataDepth:       c.DataDepth(days),
		ActiveFactors:   active,
		DaysWithAnyData: days,
	}
	res.Value = math.Min(1, c.Base*res.Consistency*res.Diversity+res.DataDepth)
	return res
}

// Recorded is the raw recorded value of a category on r, zero when absent.
func Recorded(cat factors.Category, r *day.Record) float64 {
	if r == nil {
		return 0
	}
	switch cat {
	case factors.CategoryMeals:
		return float64(r.LoggedMeals())
	case factors.CategoryTraining:
		return r.TrainedMinutes()
	case factors.CategorySleepOnset:
		if m, ok := r.OnsetMinutes(); ok {
			return float64(m)
		}
	case factors.CategorySleepDuration:
		return r.SleepDuration()
	case factors.CategorySteps:
		return float64(r.Steps)
	case factors.CategoryCheckIn:
		return r.Weight
	case factors.CategoryHousehold:
		return r.HouseholdMinutes
	case factors.CategoryMeasurements:
		return float64(r.RecordedMeasurements())
	case factors.CategorySupplements:
		return float64(r.SupplementsTaken)
	}
	return 0
}
