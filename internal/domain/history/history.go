// Package history holds the persisted date to daily-contribution map.
package history

import (
	"sort"
	"time"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// Config bounds how much history is kept.
type Config struct {
	RetentionDays int `yaml:"retention_days"`
}

// DefaultConfig keeps 35 days.
func DefaultConfig() Config {
	return Config{RetentionDays: 35}
}

// History maps a date key (2006-01-02) to that day's contribution.
type History map[string]float64

// Clone returns an independent copy.
func (h History) Clone() History {
	out := make(History, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Get returns the value for date.
func (h History) Get(date time.Time) (float64, bool) {
	v, ok := h[day.DateKey(date)]
	return v, ok
}

// Put sets the value for date, overwriting any existing entry.
func (h History) Put(date time.Time, v float64) {
	h[day.DateKey(date)] = v
}

// PutIfAbsent writes only when date has no entry and reports whether it did.
func (h History) PutIfAbsent(date time.Time, v float64) bool {
	key := day.DateKey(date)
	if _, ok := h[key]; ok {
		return false
	}
	h[key] = v
	return true
}

// Prune drops entries more than retentionDays days before ref, and
// entries whose key is not a date. It returns the number removed.
func (h History) Prune(ref time.Time, retentionDays int) int {
	cutoff := truncate(ref).AddDate(0, 0, -retentionDays)
	removed := 0
	for k := range h {
		t, err := time.Parse(day.DateLayout, k)
		if err != nil || t.Before(cutoff) {
			delete(h, k)
			removed++
		}
	}
	return removed
}

// Values returns every value in date order.
func (h History) Values() []float64 {
	keys := h.Keys()
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = h[k]
	}
	return out
}

// Keys returns the date keys in ascending order.
func (h History) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
