// Package synergy classifies the day's training load and rewards
// favourable combinations of same-day factor outcomes.
package synergy

import (
	"math"

	"github.com/sawpanic/cascade/internal/domain/factors"
)

// DayType is the training-load class of a day.
type DayType string

const (
	DayTraining   DayType = "training_day"
	DayActiveRest DayType = "active_rest"
	DayRest       DayType = "rest_day"
	DayNormal     DayType = "normal"
)

// Synergy rule names.
const (
	RestfulSleep = "good_sleep_on_rest_day"
	ActiveHome   = "household_and_steps"
	MealRhythm   = "good_meals_good_spacing"
	MorningStart = "morning_checkin_early_action"
	FullRecovery = "full_recovery_day"
)

// Config holds the day-type thresholds and synergy bonuses.
type Config struct {
	TrainingLoad       float64            `yaml:"training_load"`    // > 60
	ActiveRestLoad     float64            `yaml:"active_rest_load"` // <= 30
	TrainingMultiplier float64            `yaml:"training_multiplier"`
	EarlyMinute        int                `yaml:"early_minute"` // 10:00
	MinRhythmMeals     int                `yaml:"min_rhythm_meals"`
	Bonuses            map[string]float64 `yaml:"bonuses"`
	Cap                float64            `yaml:"cap"`
}

// DefaultConfig returns the production synergy table.
func DefaultConfig() Config {
	return Config{
		TrainingLoad:       60,
		ActiveRestLoad:     30,
		TrainingMultiplier: 1.05,
		EarlyMinute:        10 * 60,
		MinRhythmMeals:     2,
		Bonuses: map[string]float64{
			RestfulSleep: 0.25,
			ActiveHome:   0.15,
			MealRhythm:   0.30,
			MorningStart: 0.20,
			FullRecovery: 0.35,
		},
		Cap: 1.3,
	}
}

// Classify returns the day type for today's and yesterday's load.
func (c Config) Classify(load, yesterdayLoad float64) DayType {
	switch {
	case load > c.TrainingLoad:
		return DayTraining
	case load > 0 && load <= c.ActiveRestLoad:
		return DayActiveRest
	case load == 0 && yesterdayLoad > c.TrainingLoad:
		return DayRest
	default:
		return DayNormal
	}
}

// Result is the detector output.
type Result struct {
	DayType   DayType  `json:"day_type"`
	Synergies []string `json:"synergies"`
	Bonus     float64  `json:"bonus"`
}

// Apply turns the summed factor weights into the raw day score.
func (r Result) Apply(total float64, c Config) float64 {
	if r.DayType == DayTraining && total > 0 {
		total *= c.TrainingMultiplier
	}
	return total + r.Bonus
}

// Detect evaluates the day type and every synergy rule.
func (c Config) Detect(scored *factors.Result) Result {
	res := Result{DayType: c.Classify(scored.Load, scored.YesterdayLoad)}
	restLike := res.DayType == DayRest || res.DayType == DayActiveRest

	var meals, negativeMeals int
	early := false
	hasCheckIn := false
	for _, e := range scored.Events {
		switch e.Category {
		case factors.CategoryMeals:
			meals++
			if !e.Positive {
				negativeMeals++
			}
		case factors.CategoryCheckIn:
			hasCheckIn = true
		}
		if e.Positive && e.Time != nil && *e.Time < c.EarlyMinute && e.Category != factors.CategoryCheckIn {
			early = true
		}
	}

	rules := []struct {
		name string
		ok   bool
	}{
		{RestfulSleep, res.DayType == DayRest && scored.Positive(factors.CategorySleepDuration)},
		{ActiveHome, scored.Positive(factors.CategoryHousehold) && scored.Positive(factors.CategorySteps)},
		{MealRhythm, meals >= c.MinRhythmMeals && negativeMeals == 0 && scored.Positive(factors.CategoryTiming)},
		{MorningStart, hasCheckIn && early},
		{FullRecovery, restLike &&
			scored.Positive(factors.CategorySleepOnset) &&
			scored.Positive(factors.CategorySleepDuration) &&
			meals > 0 && negativeMeals == 0},
	}
	for _, r := range rules {
		if !r.ok {
			continue
		}
		res.Synergies = append(res.Synergies, r.name)
		res.Bonus += c.Bonuses[r.name]
	}
	res.Bonus = math.Min(res.Bonus, c.Cap)
	return res
}
