package day

// Goal is the user's calorie goal.
type Goal string

const (
	GoalMaintain Goal = "maintain"
	GoalDeficit  Goal = "deficit"
	GoalSurplus  Goal = "surplus"
)

// Range is a ratio band relative to the calorie norm.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Profile carries the user fields the engine reads.
type Profile struct {
	Goal        Goal    `json:"goal" yaml:"goal"`
	CalorieNorm float64 `json:"calorie_norm" yaml:"calorie_norm"`
	// TargetRange is the intended intake band as a ratio of CalorieNorm.
	TargetRange Range `json:"target_range" yaml:"target_range"`
	// CriticalOver is the ratio beyond which a deficit day is a violation.
	CriticalOver float64 `json:"critical_over" yaml:"critical_over"`
	// WeeklyTrainingLoad is the 7-day load target (minutes x intensity).
	WeeklyTrainingLoad float64 `json:"weekly_training_load" yaml:"weekly_training_load"`
}

// DefaultProfile returns a maintenance profile on a 2200 kcal norm.
func DefaultProfile() Profile {
	return Profile{
		Goal:               GoalMaintain,
		CalorieNorm:        2200,
		TargetRange:        Range{Min: 0.9, Max: 1.1},
		CriticalOver:       1.25,
		WeeklyTrainingLoad: 150,
	}
}

// IntakeRatio is kcal over the norm, zero when the norm is unknown.
func (p Profile) IntakeRatio(kcal float64) float64 {
	if p.CalorieNorm <= 0 {
		return 0
	}
	return kcal / p.CalorieNorm
}
