package day

import (
	"context"
	"time"
)

// Window holds trailing records newest first: Days[0] is yesterday,
// Days[i] is i+1 days before the reference date. A nil entry is a
// missing day, which is not the same as a recorded day with no activity.
type Window struct {
	Days []*Record `json:"days" yaml:"days"`
}

// Ago returns the record n days before the reference date (n >= 1).
func (w Window) Ago(n int) *Record {
	if n < 1 || n > len(w.Days) {
		return nil
	}
	return w.Days[n-1]
}

// Trailing returns at most n of the most recent entries, nils included.
func (w Window) Trailing(n int) []*Record {
	if n > len(w.Days) {
		n = len(w.Days)
	}
	return w.Days[:n]
}

// Len is the number of slots, present or not.
func (w Window) Len() int {
	return len(w.Days)
}

// WindowProvider supplies the trailing records for a reference date.
type WindowProvider interface {
	Window(ctx context.Context, date time.Time, days int) (Window, error)
}
