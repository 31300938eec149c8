// Package timing defines the pluggable meal-timing analyzer. The engine
// only consumes overlaps and gaps; how they are derived is up to the
// implementation.
package timing

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// Input is what an analyzer sees for one day.
type Input struct {
	Meals     []day.Meal
	Trainings []day.Training
	Profile   day.Profile
	// Calories holds the resolved kcal of Meals, index-aligned.
	Calories []float64
}

// Overlap is an intersection of two consecutive meal responses.
type Overlap struct {
	First   int     `json:"first"`
	Second  int     `json:"second"`
	Minutes float64 `json:"minutes"`
}

// Gap is a free interval after meal After.
type Gap struct {
	After   int     `json:"after"`
	Minutes float64 `json:"minutes"`
}

// Analysis is the analyzer output.
type Analysis struct {
	Overlaps []Overlap `json:"overlaps"`
	Gaps     []Gap     `json:"gaps"`
}

// Analyzer inspects meal timing.
type Analyzer interface {
	Analyze(in Input) (Analysis, error)
}

// Noop never contributes.
type Noop struct{}

// Analyze implements Analyzer.
func (Noop) Analyze(Input) (Analysis, error) { return Analysis{}, nil }

// Safe runs a and reports ok=false on nil analyzer, error or panic.
func Safe(a Analyzer, in Input) (res Analysis, ok bool) {
	if a == nil {
		return Analysis{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Int("meals", len(in.Meals)).Msg("timing analyzer panicked")
			res, ok = Analysis{}, false
		}
	}()
	res, err := a.Analyze(in)
	if err != nil {
		log.Debug().Err(err).Int("meals", len(in.Meals)).Msg("timing analyzer failed")
		return Analysis{}, false
	}
	return res, true
}

// WaveAnalyzer models each meal as an insulin response lasting
// Base + kcal/KcalPerMinute minutes, capped at Max.
type WaveAnalyzer struct {
	Base          float64
	KcalPerMinute float64
	Max           float64
}

// NewWaveAnalyzer returns the reference wave analyzer.
func NewWaveAnalyzer() *WaveAnalyzer {
	return &WaveAnalyzer{Base: 90, KcalPerMinute: 10, Max: 240}
}

type wave struct {
	meal       int
	start, end float64
}

// Analyze implements Analyzer.
func (w *WaveAnalyzer) Analyze(in Input) (Analysis, error) {
	if len(in.Calories) != len(in.Meals) {
		return Analysis{}, fmt.Errorf("calories for %d meals, got %d", len(in.Meals), len(in.Calories))
	}
	waves := make([]wave, 0, len(in.Meals))
	for i, m := range in.Meals {
		start, ok := day.ParseClock(m.Time)
		if !ok {
			continue
		}
		length := w.Base
		if w.KcalPerMinute > 0 {
			length += in.Calories[i] / w.KcalPerMinute
		}
		length = math.Min(length, w.Max)
		waves = append(waves, wave{meal: i, start: float64(start), end: float64(start) + length})
	}
	sort.SliceStable(waves, func(i, j int) bool { return waves[i].start < waves[j].start })

	var out Analysis
	for i := 1; i < len(waves); i++ {
		prev, cur := waves[i-1], waves[i]
		if cur.start < prev.end {
			out.Overlaps = append(out.Overlaps, Overlap{
				First:   prev.meal,
				Second:  cur.meal,
				Minutes: prev.end - cur.start,
			})
			continue
		}
		out.Gaps = append(out.Gaps, Gap{After: prev.meal, Minutes: cur.start - prev.end})
	}
	return out, nil
}
