// Package dcs normalises a raw day score into the bounded daily
// contribution and applies the critical-violation overrides.
package dcs

import (
	"math"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/factors"
)

// Override names.
const (
	OverrideNightExcess     = "night_unsafe_and_excess"
	OverrideNightUnsafe     = "night_unsafe"
	OverrideExcess          = "excess_calories"
	OverrideDeficitCritical = "deficit_critical"
	OverrideDeficitOver     = "deficit_over_critical"
	OverrideDeficitRange    = "deficit_over_target"
)

// Config is the normaliser's policy table.
type Config struct {
	MomentumTarget float64 `yaml:"momentum_target"`
	Floor          float64 `yaml:"floor"`
	Ceil           float64 `yaml:"ceil"`

	ExcessRatio        float64 `yaml:"excess_ratio"`         // 150% of norm
	SurplusExemptRatio float64 `yaml:"surplus_exempt_ratio"` // 180% of norm
	CriticalMargin     float64 `yaml:"critical_margin"`
	TrainingDayScale   float64 `yaml:"training_day_scale"`

	NightExcess     float64 `yaml:"night_excess"`
	NightUnsafe     float64 `yaml:"night_unsafe"`
	Excess          float64 `yaml:"excess"`
	DeficitCritical float64 `yaml:"deficit_critical"`
	DeficitOver     float64 `yaml:"deficit_over"`
	DeficitRange    float64 `yaml:"deficit_range"`
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		MomentumTarget:     10,
		Floor:              -0.3,
		Ceil:               1.0,
		ExcessRatio:        1.5,
		SurplusExemptRatio: 1.8,
		CriticalMargin:     0.2,
		TrainingDayScale:   1.2,
		NightExcess:        -1.0,
		NightUnsafe:        -0.8,
		Excess:             -0.6,
		DeficitCritical:    -0.7,
		DeficitOver:        -0.5,
		DeficitRange:       -0.4,
	}
}

// Overrides lists every fixed value an override can produce.
func (c Config) Overrides() []float64 {
	return []float64{c.NightExcess, c.NightUnsafe, c.DeficitCritical, c.Excess, c.DeficitOver, c.DeficitRange}
}

// Input is what the normaliser needs from the rest of the day.
type Input struct {
	Raw         float64
	Intake      factors.Intake
	Profile     day.Profile
	TrainingDay bool
}

// Result is the daily contribution.
type Result struct {
	Value float64 `json:"value"`
	Base  float64 `json:"base"`
	// Override names the strongest override that fired, empty if none.
	Override string `json:"override,omitempty"`
	// Exempt is set when a surplus goal waived the excess-calorie override.
	Exempt bool `json:"exempt,omitempty"`
}

func (r *Result) apply(v float64, name string) {
	if v < r.Value {
		r.Value = v
		r.Override = name
	}
}

// Normalize computes the daily contribution for in.
func (c Config) Normalize(in Input) Result {
	base := factors.Clamp(in.Raw/c.MomentumTarget, c.Floor, c.Ceil)
	res := Result{Value: base, Base: base}

	ratio := in.Intake.Ratio
	excess := ratio > c.ExcessRatio
	switch {
	case in.Intake.NightUnsafe && excess:
		res.apply(c.NightExcess, OverrideNightExcess)
	case in.Intake.NightUnsafe:
		res.apply(c.NightUnsafe, OverrideNightUnsafe)
	case excess:
		if in.Profile.Goal == day.GoalSurplus && ratio <= c.SurplusExemptRatio {
			res.Exempt = true
			break
		}
		res.apply(c.Excess, OverrideExcess)
	}

	if in.Profile.Goal == day.GoalDeficit && ratio > 0 {
		scale := 1.0
		if in.TrainingDay {
			scale = c.TrainingDayScale
		}
		critical := in.Profile.CriticalOver * scale
		switch {
		case in.Profile.CriticalOver > 0 && ratio > (in.Profile.CriticalOver+c.CriticalMargin)*scale:
			res.apply(c.DeficitCritical, OverrideDeficitCritical)
		case in.Profile.CriticalOver > 0 && ratio > critical:
			res.apply(c.DeficitOver, OverrideDeficitOver)
		case in.Profile.TargetRange.Max > 0 && ratio > in.Profile.TargetRange.Max*scale:
			res.apply(c.DeficitRange, OverrideDeficitRange)
		}
	}

	res.Value = math.Max(-1, math.Min(1, res.Value))
	return res
}
