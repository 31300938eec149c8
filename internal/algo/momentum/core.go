package momentum

import (
	"math"
	"time"

	"github.com/sawpanic/cascade/internal/domain/history"
)

// MomentumConfig defines the EMA and trend parameters
type MomentumConfig struct {
	Decay            float64     `yaml:"decay"`              // 0.95 per day
	WindowDays       int         `yaml:"window_days"`        // 30
	MinTodayFraction float64     `yaml:"min_today_fraction"` // 0.2
	Trend            TrendConfig `yaml:"trend"`
	PeakThreshold    float64     `yaml:"peak_threshold"` // 0.7
}

// TrendConfig defines the recent-vs-older comparison
type TrendConfig struct {
	RecentDays int     `yaml:"recent_days"` // newest entries
	OlderDays  int     `yaml:"older_days"`  // entries after those
	Threshold  float64 `yaml:"threshold"`   // 0.05
}

// DefaultConfig returns the production parameters
func DefaultConfig() MomentumConfig {
	return MomentumConfig{
		Decay:            0.95,
		WindowDays:       30,
		MinTodayFraction: 0.2,
		Trend: TrendConfig{
			RecentDays: 3,
			OlderDays:  4,
			Threshold:  0.05,
		},
		PeakThreshold: 0.7,
	}
}

// Trend direction
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// MomentumCore computes the cumulative momentum over a contribution history
type MomentumCore struct {
	config MomentumConfig
}

// NewMomentumCore creates a new momentum core
func NewMomentumCore(config MomentumConfig) *MomentumCore {
	return &MomentumCore{
		config: config,
	}
}

// MomentumInput is one momentum evaluation
type MomentumInput struct {
	History history.History
	Today   time.Time
	// DayFraction is the elapsed share of Today, 1 for a finished day.
	DayFraction float64
	Ceiling     float64
}

// MomentumResult contains momentum analysis results
type MomentumResult struct {
	Value        float64 `json:"value"`
	Unclamped    float64 `json:"unclamped"`
	IncludedDays int     `json:"included_days"`
	TodayWeight  float64 `json:"today_weight"`
	Trend        Trend   `json:"trend"`
	PeakDays     int     `json:"peak_days"`
}

// Calculate performs the decayed average. Days absent from the history are
// skipped, never zero-filled.
func (mc *MomentumCore) Calculate(in MomentumInput) MomentumResult {
	result := MomentumResult{Trend: TrendFlat}

	weightedSum := 0.0
	totalWeight := 0.0
	for i := 0; i < mc.config.WindowDays; i++ {
		v, ok := in.History.Get(in.Today.AddDate(0, 0, -i))
		if !ok {
			continue
		}
		weight := math.Pow(mc.config.Decay, float64(i))
		if i == 0 {
			weight *= clamp(in.DayFraction, mc.config.MinTodayFraction, 1)
			result.TodayWeight = weight
		}
		weightedSum += v * weight
		totalWeight += weight
		result.IncludedDays++
	}

	if totalWeight > 0 {
		result.Unclamped = weightedSum / totalWeight
		result.Value = clamp(result.Unclamped, 0, math.Max(0, in.Ceiling))
	}

	result.Trend = mc.CalculateTrend(in.History, in.Today)
	result.PeakDays = mc.CalculatePeakDays(in.History, in.Today)
	return result
}

// DayFraction is the share of the calendar day of today elapsed at ref.
// Any day before ref's date is complete.
func DayFraction(today, ref time.Time) float64 {
	ty, tm, td := today.Date()
	ry, rm, rd := ref.Date()
	if ty != ry || tm != rm || td != rd {
		return 1
	}
	minutes := ref.Hour()*60 + ref.Minute()
	return float64(minutes) / (24 * 60)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
