package day

import (
	"fmt"
	"time"
)

// DateLayout is the calendar key used for records and history entries.
const DateLayout = "2006-01-02"

// Item is one food reference inside a meal.
type Item struct {
	FoodID string  `json:"food_id" yaml:"food_id"`
	Grams  float64 `json:"grams" yaml:"grams"`
	// Calories is the raw kcal for the whole portion, used when the
	// nutrition lookup cannot resolve FoodID.
	Calories float64 `json:"calories,omitempty" yaml:"calories,omitempty"`
}

// Meal is a timed list of items.
type Meal struct {
	Time  string `json:"time" yaml:"time"` // HH:MM local
	Items []Item `json:"items" yaml:"items"`
}

// Training is one session. Type selects the intensity multiplier.
type Training struct {
	Time    string  `json:"time" yaml:"time"`
	Type    string  `json:"type" yaml:"type"`
	Minutes float64 `json:"minutes" yaml:"minutes"`
}

// Record is the immutable snapshot of one calendar day of tracking.
// Zero values mean "not recorded".
type Record struct {
	Date               string              `json:"date" yaml:"date"`
	Meals              []Meal              `json:"meals,omitempty" yaml:"meals,omitempty"`
	Trainings          []Training          `json:"trainings,omitempty" yaml:"trainings,omitempty"`
	SleepOnset         string              `json:"sleep_onset,omitempty" yaml:"sleep_onset,omitempty"`
	SleepEnd           string              `json:"sleep_end,omitempty" yaml:"sleep_end,omitempty"`
	SleepHours         float64             `json:"sleep_hours,omitempty" yaml:"sleep_hours,omitempty"`
	Steps              int                 `json:"steps,omitempty" yaml:"steps,omitempty"`
	HouseholdMinutes   float64             `json:"household_minutes,omitempty" yaml:"household_minutes,omitempty"`
	Weight             float64             `json:"weight,omitempty" yaml:"weight,omitempty"`
	Measurements       map[string]Quantity `json:"measurements,omitempty" yaml:"measurements,omitempty"`
	SupplementsTaken   int                 `json:"supplements_taken,omitempty" yaml:"supplements_taken,omitempty"`
	SupplementsPlanned int                 `json:"supplements_planned,omitempty" yaml:"supplements_planned,omitempty"`
}

// ParseDate returns the record's calendar date in UTC.
func (r *Record) ParseDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid record date %q: %w", r.Date, err)
	}
	return t, nil
}

// OnsetMinutes returns the sleep onset on a continuous evening scale:
// times before noon belong to the night after midnight and get +24h.
func (r *Record) OnsetMinutes() (int, bool) {
	m, ok := ParseClock(r.SleepOnset)
	if !ok {
		return 0, false
	}
	if m < 12*60 {
		m += 24 * 60
	}
	return m, true
}

// SleepDuration returns the explicit sleep hours or derives them from
// onset and end. Zero means unknown.
func (r *Record) SleepDuration() float64 {
	if r.SleepHours > 0 {
		return r.SleepHours
	}
	onset, ok := ParseClock(r.SleepOnset)
	if !ok {
		return 0
	}
	end, ok := ParseClock(r.SleepEnd)
	if !ok {
		return 0
	}
	mins := (end - onset + 24*60) % (24 * 60)
	return float64(mins) / 60.0
}

// RecordedMeasurements counts measurements with a usable positive value.
func (r *Record) RecordedMeasurements() int {
	n := 0
	for _, v := range r.Measurements {
		if v > 0 {
			n++
		}
	}
	return n
}

// LoggedMeals counts meals with at least one item.
func (r *Record) LoggedMeals() int {
	n := 0
	for _, m := range r.Meals {
		if len(m.Items) > 0 {
			n++
		}
	}
	return n
}

// TrainedMinutes sums the positive session durations.
func (r *Record) TrainedMinutes() float64 {
	var minutes float64
	for _, t := range r.Trainings {
		if t.Minutes > 0 {
			minutes += t.Minutes
		}
	}
	return minutes
}

// HasActivity reports whether any factor carries data. Empty meals and
// zero-minute sessions do not count.
func (r *Record) HasActivity() bool {
	if r == nil {
		return false
	}
	_, onsetOK := ParseClock(r.SleepOnset)
	return r.LoggedMeals() > 0 ||
		r.TrainedMinutes() > 0 ||
		onsetOK ||
		r.SleepDuration() > 0 ||
		r.Steps > 0 ||
		r.HouseholdMinutes > 0 ||
		r.Weight > 0 ||
		r.RecordedMeasurements() > 0 ||
		r.SupplementsPlanned > 0
}

// DateKey formats t as a history/record key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
