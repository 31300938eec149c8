// Package factors scores each tracked behaviour of a day against the
// user's personal baseline and damps the result by how much history backs
// that baseline.
package factors

import (
	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/nutrition"
	"github.com/sawpanic/cascade/internal/domain/timing"
)

// Input is one day to score plus its trailing context.
type Input struct {
	Record  *day.Record
	Window  day.Window
	Profile day.Profile
}

// Factor aggregates the events of one category.
type Factor struct {
	Category   Category `json:"category"`
	Present    bool     `json:"present"`
	Raw        float64  `json:"raw"`
	Confidence float64  `json:"confidence"`
	Weight     float64  `json:"weight"`
}

// Intake is the day's calorie picture.
type Intake struct {
	Calories    float64 `json:"calories"`
	Ratio       float64 `json:"ratio"`
	Unsafe      bool    `json:"unsafe"`
	NightUnsafe bool    `json:"night_unsafe"`
	// MealMinutes and MealCalories are index-aligned with Record.Meals;
	// a minute of -1 marks an untimed or empty meal.
	MealMinutes  []int     `json:"-"`
	MealCalories []float64 `json:"-"`
}

// Session is a scored training session.
type Session struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Load  float64 `json:"load"`
	Timed bool    `json:"timed"`
}

// Result is everything the downstream stages need from scoring.
type Result struct {
	Events        []Event
	Factors       map[Category]*Factor
	Intake        Intake
	Load          float64
	YesterdayLoad float64
	Sessions      []Session
	// TimingAvailable is false when no analyzer ran.
	TimingAvailable bool
}

// Total sums every event weight.
func (r *Result) Total() float64 {
	var sum float64
	for _, e := range r.Events {
		sum += e.Weight
	}
	return sum
}

// Positive reports whether a category is present with a net positive weight.
func (r *Result) Positive(cat Category) bool {
	f, ok := r.Factors[cat]
	return ok && f.Present && f.Weight > 0
}

// Confidence returns the confidence of every present factor.
func (r *Result) Confidence() map[string]float64 {
	out := make(map[string]float64, len(r.Factors))
	for cat, f := range r.Factors {
		if f.Present {
			out[string(cat)] = f.Confidence
		}
	}
	return out
}

func (r *Result) factor(cat Category) *Factor {
	f, ok := r.Factors[cat]
	if !ok {
		f = &Factor{Category: cat}
		r.Factors[cat] = f
	}
	return f
}

// add records a raw weight under a confidence and returns the damped weight.
func (r *Result) add(cat Category, raw, confidence float64) float64 {
	f := r.factor(cat)
	f.Present = true
	f.Raw += raw
	f.Confidence = confidence
	w := raw * confidence
	f.Weight += w
	return w
}

// Scorer runs the factor models. Lookup and analyzer are optional.
type Scorer struct {
	cfg      Config
	lookup   nutrition.Lookup
	analyzer timing.Analyzer
}

// NewScorer creates a scorer. A nil analyzer disables the timing factor.
func NewScorer(cfg Config, lookup nutrition.Lookup, analyzer timing.Analyzer) *Scorer {
	return &Scorer{cfg: cfg, lookup: lookup, analyzer: analyzer}
}

// Config returns the scorer's constants.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score evaluates every factor for in.Record. Events come back in emission
// order; callers sort them with SortEvents.
func (s *Scorer) Score(in Input) *Result {
	res := &Result{Factors: make(map[Category]*Factor)}
	rec := in.Record
	if rec == nil {
		return res
	}
	res.YesterdayLoad = s.cfg.Training.DayLoad(in.Window.Ago(1))

	s.scoreSleepOnset(in, res)
	s.scoreSleepDuration(in, res)
	s.scoreCheckIn(in, res)
	s.scoreMeasurements(in, res)
	s.scoreMeals(in, res)
	s.scoreTraining(in, res)
	s.scoreHousehold(in, res)
	s.scoreSupplements(in, res)
	s.scoreSteps(in, res)
	s.scoreTiming(in, res)
	res.Events = dropNeutral(res.Events)
	return res
}

// samples collects the non-zero values of fn over the baseline window and
// the number of days that had one.
func (s *Scorer) samples(w day.Window, fn func(*day.Record) float64) ([]float64, int) {
	var vals []float64
	for _, r := range w.Trailing(s.cfg.BaselineWindow) {
		if r == nil {
			continue
		}
		if v := fn(r); v != 0 {
			vals = append(vals, v)
		}
	}
	return vals, len(vals)
}
