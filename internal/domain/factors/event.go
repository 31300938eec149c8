package factors

import "sort"

// Category names a scored factor.
type Category string

const (
	CategoryMeals         Category = "meals"
	CategoryTraining      Category = "training"
	CategorySleepOnset    Category = "sleep_onset"
	CategorySleepDuration Category = "sleep_duration"
	CategorySteps         Category = "steps"
	CategoryCheckIn       Category = "checkin"
	CategoryHousehold     Category = "household"
	CategoryMeasurements  Category = "measurements"
	CategorySupplements   Category = "supplements"
	CategoryTiming        Category = "timing"
)

// Tracked lists the nine behaviour categories a user can log. Timing is
// derived from meals and is not counted.
var Tracked = []Category{
	CategoryMeals,
	CategoryTraining,
	CategorySleepOnset,
	CategorySleepDuration,
	CategorySteps,
	CategoryCheckIn,
	CategoryHousehold,
	CategoryMeasurements,
	CategorySupplements,
}

// Event is one scored occurrence in the day.
type Event struct {
	Category Category `json:"category"`
	// Time is minutes after midnight, nil for untimed factors.
	Time        *int    `json:"time,omitempty"`
	Weight      float64 `json:"weight"`
	Positive    bool    `json:"positive"`
	Key         int     `json:"key"`
	Label       string  `json:"label"`
	BreakReason string  `json:"break_reason,omitempty"`
}

func timedEvent(cat Category, minute int, weight float64, label, reason string) Event {
	m := minute
	e := untimedEvent(cat, minute, weight, label, reason)
	e.Time = &m
	return e
}

func untimedEvent(cat Category, key int, weight float64, label, reason string) Event {
	e := Event{
		Category: cat,
		Weight:   weight,
		Positive: weight > 0,
		Key:      key,
		Label:    label,
	}
	if !e.Positive {
		e.BreakReason = reason
	}
	return e
}

// SortEvents orders events by Key, keeping emission order on ties.
func SortEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// dropNeutral removes zero-weight events so they neither extend nor break
// a chain.
func dropNeutral(events []Event) []Event {
	out := events[:0]
	for _, e := range events {
		if e.Weight != 0 {
			out = append(out, e)
		}
	}
	return out
}
