// Package backfill approximates the daily contribution of past days that
// never received a live score. It mirrors the live curves in simplified
// form and writes each missing date at most once.
package backfill

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/factors"
	"github.com/sawpanic/cascade/internal/domain/history"
)

// Band is a meal score for meals starting before Before (minute of day).
type Band struct {
	Before int     `yaml:"before"`
	Score  float64 `yaml:"score"`
}

// Config is the simplified curve table.
type Config struct {
	Days           int     `yaml:"days"`
	ChronotypeDays int     `yaml:"chronotype_days"`
	MomentumTarget float64 `yaml:"momentum_target"`
	Floor          float64 `yaml:"floor"`
	Ceil           float64 `yaml:"ceil"`

	MealBands []Band  `yaml:"meal_bands"`
	LateMeal  float64 `yaml:"late_meal"`

	TrainingUnit float64 `yaml:"training_unit"`
	TrainingGain float64 `yaml:"training_gain"`
	TrainingCap  float64 `yaml:"training_cap"`

	DefaultOnset float64 `yaml:"default_onset"`
	OnsetScale   float64 `yaml:"onset_scale"`
	OnsetGain    float64 `yaml:"onset_gain"`
	OnsetOffset  float64 `yaml:"onset_offset"`
	OnsetCutoff  int     `yaml:"onset_cutoff"` // 04:00 next day
	OnsetFloor   float64 `yaml:"onset_floor"`

	SleepTarget float64 `yaml:"sleep_target"`
	SleepSigma  float64 `yaml:"sleep_sigma"`
	SleepPeak   float64 `yaml:"sleep_peak"`
	SleepOffset float64 `yaml:"sleep_offset"`

	StepsGoal   float64 `yaml:"steps_goal"`
	StepsGain   float64 `yaml:"steps_gain"`
	StepsOffset float64 `yaml:"steps_offset"`

	CheckInBase float64 `yaml:"checkin_base"`
	CheckInStep float64 `yaml:"checkin_step"`
	CheckInCap  float64 `yaml:"checkin_cap"`

	HouseholdBaseline float64 `yaml:"household_baseline"`
	HouseholdBase     float64 `yaml:"household_base"`
	HouseholdGain     float64 `yaml:"household_gain"`
	HouseholdMin      float64 `yaml:"household_min"`
	HouseholdMax      float64 `yaml:"household_max"`

	SupplementGain   float64 `yaml:"supplement_gain"`
	SupplementOffset float64 `yaml:"supplement_offset"`

	LongGap     int     `yaml:"long_gap"`
	ShortGap    int     `yaml:"short_gap"`
	GapBonus    float64 `yaml:"gap_bonus"`
	GapPenalty  float64 `yaml:"gap_penalty"`
	MeasureBase float64 `yaml:"measure_base"`
	Measurement float64 `yaml:"measurement"`
	MeasureMax  float64 `yaml:"measure_max"`

	SynergyHigh      int     `yaml:"synergy_high"`
	SynergyHighBonus float64 `yaml:"synergy_high_bonus"`
	SynergyLow       int     `yaml:"synergy_low"`
	SynergyLowBonus  float64 `yaml:"synergy_low_bonus"`
}

// DefaultConfig returns the production table.
func DefaultConfig() Config {
	return Config{
		Days:           30,
		ChronotypeDays: 7,
		MomentumTarget: 10,
		Floor:          -0.3,
		Ceil:           1.0,
		MealBands: []Band{
			{Before: 10 * 60, Score: 0.9},
			{Before: 14 * 60, Score: 0.8},
			{Before: 18 * 60, Score: 0.5},
			{Before: 21 * 60, Score: 0.3},
			{Before: 23 * 60, Score: -0.2},
		},
		LateMeal:          -1.0,
		TrainingUnit:      30,
		TrainingGain:      1.2,
		TrainingCap:       2.5,
		DefaultOnset:      23 * 60,
		OnsetScale:        40,
		OnsetGain:         2.0,
		OnsetOffset:       0.5,
		OnsetCutoff:       28 * 60,
		OnsetFloor:        -2.0,
		SleepTarget:       7.5,
		SleepSigma:        0.8,
		SleepPeak:         1.5,
		SleepOffset:       0.5,
		StepsGoal:         8000,
		StepsGain:         1.2,
		StepsOffset:       0.15,
		CheckInBase:       0.4,
		CheckInStep:       0.05,
		CheckInCap:        0.2,
		HouseholdBaseline: 30,
		HouseholdBase:     0.3,
		HouseholdGain:     0.4,
		HouseholdMin:      -0.3,
		HouseholdMax:      0.8,
		SupplementGain:    0.5,
		SupplementOffset:  -0.1,
		LongGap:           180,
		ShortGap:          90,
		GapBonus:          0.1,
		GapPenalty:        -0.1,
		MeasureBase:       0.1,
		Measurement:       0.05,
		MeasureMax:        0.4,
		SynergyHigh:       5,
		SynergyHighBonus:  0.3,
		SynergyLow:        3,
		SynergyLowBonus:   0.15,
	}
}

// Source returns the record n days before the reference date; 0 is the
// reference day itself. nil means no record.
type Source func(n int) *day.Record

// WindowSource adapts today's record and its trailing window.
func WindowSource(today *day.Record, w day.Window) Source {
	return func(n int) *day.Record {
		if n == 0 {
			return today
		}
		return w.Ago(n)
	}
}

// Estimate approximates the contribution of the record n days ago.
func (c Config) Estimate(src Source, n int) float64 {
	rec := src(n)
	if rec == nil {
		return 0
	}

	var parts []float64
	add := func(v float64) { parts = append(parts, v) }

	if meals := c.meals(rec); len(meals) > 0 {
		sum := 0.0
		for _, m := range meals {
			sum += c.mealScore(m)
		}
		add(sum)
		if len(meals) > 1 {
			add(c.gapProxy(meals))
		}
	}
	if minutes := rec.TrainedMinutes(); minutes > 0 {
		add(math.Min(math.Sqrt(minutes/c.TrainingUnit)*c.TrainingGain, c.TrainingCap))
	}
	if onset, ok := rec.OnsetMinutes(); ok {
		add(c.onsetScore(float64(onset), c.chronotype(src, n)))
	}
	if h := rec.SleepDuration(); h > 0 {
		d := h - c.SleepTarget
		add(c.SleepPeak*math.Exp(-d*d/(2*c.SleepSigma*c.SleepSigma)) - c.SleepOffset)
	}
	if rec.Steps > 0 {
		add(c.StepsGain*math.Tanh(float64(rec.Steps)/c.StepsGoal) - c.StepsOffset)
	}
	if rec.Weight > 0 {
		streak := 0
		for i := n + 1; i <= n+c.Days; i++ {
			prev := src(i)
			if prev == nil || prev.Weight <= 0 {
				break
			}
			streak++
		}
		add(c.CheckInBase + math.Min(c.CheckInStep*float64(streak), c.CheckInCap))
	}
	if rec.HouseholdMinutes > 0 {
		v := c.HouseholdBase + c.HouseholdGain*math.Log2(rec.HouseholdMinutes/c.HouseholdBaseline)
		add(factors.Clamp(v, c.HouseholdMin, c.HouseholdMax))
	}
	if rec.SupplementsPlanned > 0 {
		ratio := math.Min(float64(rec.SupplementsTaken)/float64(rec.SupplementsPlanned), 1)
		add(c.SupplementGain*ratio + c.SupplementOffset)
	}
	if k := rec.RecordedMeasurements(); k > 0 {
		add(math.Min(c.MeasureBase+c.Measurement*float64(k), c.MeasureMax))
	}

	est := 0.0
	positive := 0
	for _, v := range parts {
		est += v
		if v > 0 {
			positive++
		}
	}
	switch {
	case positive >= c.SynergyHigh:
		est += c.SynergyHighBonus
	case positive >= c.SynergyLow:
		est += c.SynergyLowBonus
	}
	return factors.Clamp(est/c.MomentumTarget, c.Floor, c.Ceil)
}

// Fill writes an estimate for every trailing day that has a record and no
// history entry. A recorded day without activity is written as well, so it
// weighs on momentum like a live empty day. Existing entries are never
// touched. It returns the dates written.
func (c Config) Fill(h history.History, today time.Time, src Source) []string {
	var written []string
	for n := 1; n <= c.Days; n++ {
		if src(n) == nil {
			continue
		}
		date := today.AddDate(0, 0, -n)
		if h.PutIfAbsent(date, c.Estimate(src, n)) {
			written = append(written, day.DateKey(date))
		}
	}
	return written
}

// meals returns the minutes of the timed meals with items, in order.
func (c Config) meals(r *day.Record) []int {
	var out []int
	for _, m := range r.Meals {
		if len(m.Items) == 0 {
			continue
		}
		if minute, ok := day.ParseClock(m.Time); ok {
			out = append(out, minute)
		}
	}
	sort.Ints(out)
	return out
}

func (c Config) mealScore(minute int) float64 {
	for _, b := range c.MealBands {
		if minute < b.Before {
			return b.Score
		}
	}
	return c.LateMeal
}

func (c Config) gapProxy(meals []int) float64 {
	v := 0.0
	for i := 1; i < len(meals); i++ {
		gap := meals[i] - meals[i-1]
		switch {
		case gap >= c.LongGap:
			v += c.GapBonus
		case gap < c.ShortGap:
			v += c.GapPenalty
		}
	}
	return v
}

func (c Config) onsetScore(onset, base float64) float64 {
	if onset >= float64(c.OnsetCutoff) {
		return c.OnsetFloor
	}
	return c.OnsetGain*factors.Sigmoid(-(onset-base)/c.OnsetScale) - c.OnsetOffset
}

// chronotype is the median onset of the days within ChronotypeDays of the
// n-th day, the day itself excluded.
func (c Config) chronotype(src Source, n int) float64 {
	var onsets []float64
	for i := n - c.ChronotypeDays; i <= n+c.ChronotypeDays; i++ {
		if i < 0 || i == n {
			continue
		}
		r := src(i)
		if r == nil {
			continue
		}
		if m, ok := r.OnsetMinutes(); ok {
			onsets = append(onsets, float64(m))
		}
	}
	if len(onsets) == 0 {
		return c.DefaultOnset
	}
	return factors.Median(onsets)
}
