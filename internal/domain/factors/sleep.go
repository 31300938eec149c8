package factors

import (
	"fmt"
	"math"

	"github.com/sawpanic/cascade/internal/domain/day"
)

func onsetSample(r *day.Record) float64 {
	m, ok := r.OnsetMinutes()
	if !ok {
		return 0
	}
	return float64(m)
}

func durationSample(r *day.Record) float64 {
	return r.SleepDuration()
}

// OnsetWeight scores an onset (continuous evening minutes) against the
// optimal onset. Exported for the backfill estimator's calibration tests.
func (c SleepOnsetConfig) OnsetWeight(onset, optimal float64) float64 {
	if onset >= float64(c.HardCutoff) {
		return c.HardFloor
	}
	raw := -math.Tanh((onset-optimal)/c.Scale)*c.Amplitude + c.Offset
	return Clamp(raw, c.Min, c.Max)
}

// Optimal clamps the personal median onset into the healthy band.
func (c SleepOnsetConfig) Optimal(median float64) float64 {
	return Clamp(median, float64(c.BandMin), float64(c.BandMax))
}

func (s *Scorer) scoreSleepOnset(in Input, res *Result) {
	cfg := s.cfg.SleepOnset
	onset, ok := in.Record.OnsetMinutes()
	if !ok {
		return
	}
	samples, days := s.samples(in.Window, onsetSample)
	conf := s.cfg.ConfidenceFor(days)
	optimal := cfg.Optimal(s.cfg.Baseline(samples, float64(cfg.Default)))

	raw := cfg.OnsetWeight(float64(onset), optimal)
	if onset < cfg.HardCutoff && len(samples) >= s.cfg.MinBaselineSamples && Stdev(samples) < cfg.ConsistencyStdev {
		raw += cfg.ConsistencyBonus
	}
	w := res.add(CategorySleepOnset, raw, conf)
	label := fmt.Sprintf("Asleep at %s", day.FormatClock(onset))
	res.Events = append(res.Events, untimedEvent(CategorySleepOnset, s.cfg.Keys.SleepOnset, w, label, "late sleep onset"))
}

// DurationWeight scores slept hours against a target.
func (c SleepDurationConfig) DurationWeight(hours, target float64) float64 {
	if hours < c.ShortHours {
		return c.ShortFloor
	}
	if hours > c.LongHours {
		return c.LongFloor
	}
	dev := hours - target
	if dev < 0 {
		dev *= c.UnderPenalty
	}
	return c.Peak*math.Exp(-(dev*dev)/(2*c.Sigma*c.Sigma)) - c.Offset
}

// Target clamps the personal median duration and adds recovery need.
func (c SleepDurationConfig) Target(median float64, heavyYesterday bool) float64 {
	t := Clamp(median, c.Min, c.Max)
	if heavyYesterday {
		t += c.HeavyDayExtra
	}
	return t
}

func (s *Scorer) scoreSleepDuration(in Input, res *Result) {
	cfg := s.cfg.SleepDuration
	hours := in.Record.SleepDuration()
	if hours <= 0 {
		return
	}
	samples, days := s.samples(in.Window, durationSample)
	conf := s.cfg.ConfidenceFor(days)
	target := cfg.Target(s.cfg.Baseline(samples, cfg.Default), res.YesterdayLoad > s.cfg.Training.HeavyLoad)

	w := res.add(CategorySleepDuration, cfg.DurationWeight(hours, target), conf)
	label := fmt.Sprintf("Slept %.1f h (target %.1f h)", hours, target)
	reason := "oversleep"
	if hours < target {
		reason = "undersleep"
	}
	res.Events = append(res.Events, untimedEvent(CategorySleepDuration, s.cfg.Keys.SleepDuration, w, label, reason))
}
