package factors

// Config is the factor-scoring section of the policy table.
type Config struct {
	BaselineWindow     int                 `yaml:"baseline_window"`      // 14 days
	MinBaselineSamples int                 `yaml:"min_baseline_samples"` // 3
	Confidence         ConfidenceConfig    `yaml:"confidence"`
	Keys               KeysConfig          `yaml:"keys"`
	Meals              MealsConfig         `yaml:"meals"`
	Training           TrainingConfig      `yaml:"training"`
	SleepOnset         SleepOnsetConfig    `yaml:"sleep_onset"`
	SleepDuration      SleepDurationConfig `yaml:"sleep_duration"`
	Steps              StepsConfig         `yaml:"steps"`
	CheckIn            CheckInConfig       `yaml:"checkin"`
	Household          HouseholdConfig     `yaml:"household"`
	Measurements       MeasurementsConfig  `yaml:"measurements"`
	Supplements        SupplementsConfig   `yaml:"supplements"`
	Timing             TimingConfig        `yaml:"timing"`
}

// ConfidenceTier maps a count of days with data to a confidence.
type ConfidenceTier struct {
	MinDays int     `yaml:"min_days"`
	Value   float64 `yaml:"value"`
}

// ConfidenceConfig tiers are checked in order; Floor applies with no data.
type ConfidenceConfig struct {
	Tiers []ConfidenceTier `yaml:"tiers"`
	Floor float64          `yaml:"floor"`
}

// KeysConfig holds synthetic ordering keys (minutes) for untimed events.
type KeysConfig struct {
	SleepOnset    int `yaml:"sleep_onset"`
	SleepDuration int `yaml:"sleep_duration"`
	CheckIn       int `yaml:"checkin"`
	Measurements  int `yaml:"measurements"`
	Household     int `yaml:"household"`
	Supplements   int `yaml:"supplements"`
	TrainingRest  int `yaml:"training_rest"`
	Steps         int `yaml:"steps"`
	Timing        int `yaml:"timing"`
}

// CircadianBand applies Multiplier to meals starting in [Start, End) minutes.
type CircadianBand struct {
	Start      int     `yaml:"start"`
	End        int     `yaml:"end"`
	Multiplier float64 `yaml:"multiplier"`
}

type MealsConfig struct {
	UnsafeHarm        float64         `yaml:"unsafe_harm"`  // 7
	UnknownHarm       float64         `yaml:"unknown_harm"` // 3
	HarmScale         float64         `yaml:"harm_scale"`   // quality = 100 - harm*scale
	QualityFloor      float64         `yaml:"quality_floor"`
	QualitySpan       float64         `yaml:"quality_span"`
	Circadian         []CircadianBand `yaml:"circadian"`
	DefaultMultiplier float64         `yaml:"default_multiplier"`
	CutoffMinute      int             `yaml:"cutoff_minute"` // 23:00
	ViolationWeight   float64         `yaml:"violation_weight"`
	NightEndMinute    int             `yaml:"night_end_minute"` // 06:00
	MaintainThreshold float64         `yaml:"maintain_threshold"`
	SurplusThreshold  float64         `yaml:"surplus_threshold"`
	PenaltyScale      float64         `yaml:"penalty_scale"`
	PenaltySlope      float64         `yaml:"penalty_slope"`
}

type TrainingConfig struct {
	Intensity         map[string]float64 `yaml:"intensity"`
	DefaultIntensity  float64            `yaml:"default_intensity"`
	LoadUnit          float64            `yaml:"load_unit"` // 30
	Gain              float64            `yaml:"gain"`      // 1.2
	MinWeight         float64            `yaml:"min_weight"`
	MaxWeight         float64            `yaml:"max_weight"`
	SessionFactors    []float64          `yaml:"session_factors"`
	HeavyLoad         float64            `yaml:"heavy_load"` // 60
	RecoveryBonus     float64            `yaml:"recovery_bonus"`
	StreakMinDays     int                `yaml:"streak_min_days"`
	StreakStep        float64            `yaml:"streak_step"`
	StreakCap         float64            `yaml:"streak_cap"`
	DefaultWeeklyLoad float64            `yaml:"default_weekly_load"`
}

type SleepOnsetConfig struct {
	Default          int     `yaml:"default"`  // 23:00
	BandMin          int     `yaml:"band_min"` // 21:30
	BandMax          int     `yaml:"band_max"` // 01:30 next day
	Scale            float64 `yaml:"scale"`
	Amplitude        float64 `yaml:"amplitude"`
	Offset           float64 `yaml:"offset"`
	Min              float64 `yaml:"min"`
	Max              float64 `yaml:"max"`
	ConsistencyStdev float64 `yaml:"consistency_stdev"`
	ConsistencyBonus float64 `yaml:"consistency_bonus"`
	HardCutoff       int     `yaml:"hard_cutoff"` // 04:00 next day
	HardFloor        float64 `yaml:"hard_floor"`
}

type SleepDurationConfig struct {
	Default       float64 `yaml:"default"`
	Min           float64 `yaml:"min"`
	Max           float64 `yaml:"max"`
	HeavyDayExtra float64 `yaml:"heavy_day_extra"`
	Sigma         float64 `yaml:"sigma"`
	Peak          float64 `yaml:"peak"`
	Offset        float64 `yaml:"offset"`
	UnderPenalty  float64 `yaml:"under_penalty"`
	ShortHours    float64 `yaml:"short_hours"`
	ShortFloor    float64 `yaml:"short_floor"`
	LongHours     float64 `yaml:"long_hours"`
	LongFloor     float64 `yaml:"long_floor"`
}

type StepsConfig struct {
	DefaultGoal float64 `yaml:"default_goal"`
	MinGoal     float64 `yaml:"min_goal"`
	GoalFactor  float64 `yaml:"goal_factor"`
	Pivot       float64 `yaml:"pivot"`
	Slope       float64 `yaml:"slope"`
	Offset      float64 `yaml:"offset"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
}

type CheckInConfig struct {
	Base           float64 `yaml:"base"`
	StreakStep     float64 `yaml:"streak_step"`
	StreakCap      float64 `yaml:"streak_cap"`
	StabilityBonus float64 `yaml:"stability_bonus"`
	StabilitySlope float64 `yaml:"stability_slope"` // kg/day
	TrendDays      int     `yaml:"trend_days"`
	MinTrendPoints int     `yaml:"min_trend_points"`
}

type HouseholdConfig struct {
	DefaultMinutes float64 `yaml:"default_minutes"`
	Base           float64 `yaml:"base"`
	Gain           float64 `yaml:"gain"`
	Min            float64 `yaml:"min"`
	Max            float64 `yaml:"max"`
}

type MeasurementsConfig struct {
	Base    float64 `yaml:"base"`
	PerItem float64 `yaml:"per_item"`
	Max     float64 `yaml:"max"`
}

type SupplementsConfig struct {
	DefaultAdherence float64 `yaml:"default_adherence"`
	Gain             float64 `yaml:"gain"`
	BaselineGain     float64 `yaml:"baseline_gain"`
	Offset           float64 `yaml:"offset"`
	Min              float64 `yaml:"min"`
	Max              float64 `yaml:"max"`
}

type TimingConfig struct {
	OverlapPenalty float64 `yaml:"overlap_penalty"`
	OverlapPivot   float64 `yaml:"overlap_pivot"`
	OverlapScale   float64 `yaml:"overlap_scale"`
	GapGain        float64 `yaml:"gap_gain"`
	GapUnit        float64 `yaml:"gap_unit"`
	GapCap         float64 `yaml:"gap_cap"`
	AnabolicWindow float64 `yaml:"anabolic_window"` // minutes after a session ends
	AnabolicBonus  float64 `yaml:"anabolic_bonus"`
	NightFastHours float64 `yaml:"night_fast_hours"`
	NightFastBonus float64 `yaml:"night_fast_bonus"`
}

// DefaultConfig returns the production factor constants.
func DefaultConfig() Config {
	return Config{
		BaselineWindow:     14,
		MinBaselineSamples: 3,
		Confidence: ConfidenceConfig{
			Tiers: []ConfidenceTier{
				{MinDays: 10, Value: 1.0},
				{MinDays: 7, Value: 0.8},
				{MinDays: 3, Value: 0.5},
				{MinDays: 1, Value: 0.3},
			},
			Floor: 0.1,
		},
		Keys: KeysConfig{
			SleepOnset:    -20,
			SleepDuration: -10,
			CheckIn:       360,
			Measurements:  365,
			Household:     1140,
			Supplements:   1200,
			TrainingRest:  1300,
			Steps:         1380,
			Timing:        1390,
		},
		Meals: MealsConfig{
			UnsafeHarm:   7,
			UnknownHarm:  3,
			HarmScale:    10,
			QualityFloor: -1.0,
			QualitySpan:  2.5,
			Circadian: []CircadianBand{
				{Start: 5 * 60, End: 10 * 60, Multiplier: 1.3},
				{Start: 10 * 60, End: 14 * 60, Multiplier: 1.1},
				{Start: 14 * 60, End: 18 * 60, Multiplier: 1.0},
				{Start: 18 * 60, End: 21 * 60, Multiplier: 0.85},
			},
			DefaultMultiplier: 0.7,
			CutoffMinute:      23 * 60,
			ViolationWeight:   -1.0,
			NightEndMinute:    6 * 60,
			MaintainThreshold: 1.0,
			SurplusThreshold:  1.30,
			PenaltyScale:      1.2,
			PenaltySlope:      4,
		},
		Training: TrainingConfig{
			Intensity: map[string]float64{
				"walk":     0.5,
				"yoga":     0.6,
				"cardio":   1.0,
				"cycling":  1.0,
				"swim":     1.1,
				"strength": 1.1,
				"run":      1.2,
				"hiit":     1.5,
			},
			DefaultIntensity:  1.0,
			LoadUnit:          30,
			Gain:              1.2,
			MinWeight:         0.3,
			MaxWeight:         3.0,
			SessionFactors:    []float64{1.0, 0.5, 0.25},
			HeavyLoad:         60,
			RecoveryBonus:     0.3,
			StreakMinDays:     2,
			StreakStep:        0.1,
			StreakCap:         0.5,
			DefaultWeeklyLoad: 150,
		},
		SleepOnset: SleepOnsetConfig{
			Default:          23 * 60,
			BandMin:          21*60 + 30,
			BandMax:          25*60 + 30,
			Scale:            60,
			Amplitude:        1.5,
			Offset:           0.5,
			Min:              -2.0,
			Max:              1.2,
			ConsistencyStdev: 30,
			ConsistencyBonus: 0.2,
			HardCutoff:       28 * 60,
			HardFloor:        -2.0,
		},
		SleepDuration: SleepDurationConfig{
			Default:       7.5,
			Min:           6.0,
			Max:           9.0,
			HeavyDayExtra: 0.5,
			Sigma:         0.8,
			Peak:          1.5,
			Offset:        0.5,
			UnderPenalty:  1.3,
			ShortHours:    4,
			ShortFloor:    -2.0,
			LongHours:     12,
			LongFloor:     -0.5,
		},
		Steps: StepsConfig{
			DefaultGoal: 8000,
			MinGoal:     5000,
			GoalFactor:  1.05,
			Pivot:       0.6,
			Slope:       2.5,
			Offset:      0.15,
			Min:         -0.5,
			Max:         1.3,
		},
		CheckIn: CheckInConfig{
			Base:           0.3,
			StreakStep:     0.05,
			StreakCap:      0.5,
			StabilityBonus: 0.2,
			StabilitySlope: 0.05,
			TrendDays:      7,
			MinTrendPoints: 3,
		},
		Household: HouseholdConfig{
			DefaultMinutes: 30,
			Base:           0.3,
			Gain:           0.4,
			Min:            -0.3,
			Max:            0.8,
		},
		Measurements: MeasurementsConfig{
			Base:    0.1,
			PerItem: 0.05,
			Max:     0.4,
		},
		Supplements: SupplementsConfig{
			DefaultAdherence: 0.8,
			Gain:             0.4,
			BaselineGain:     0.2,
			Offset:           -0.1,
			Min:              -0.3,
			Max:              0.5,
		},
		Timing: TimingConfig{
			OverlapPenalty: 0.6,
			OverlapPivot:   60,
			OverlapScale:   20,
			GapGain:        0.15,
			GapUnit:        120,
			GapCap:         0.3,
			AnabolicWindow: 120,
			AnabolicBonus:  0.3,
			NightFastHours: 12,
			NightFastBonus: 0.25,
		},
	}
}
