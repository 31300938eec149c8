package factors

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// SessionLoad is minutes x intensity multiplier for the session type.
func (c TrainingConfig) SessionLoad(t day.Training) float64 {
	if t.Minutes <= 0 {
		return 0
	}
	mult, ok := c.Intensity[strings.ToLower(strings.TrimSpace(t.Type))]
	if !ok {
		mult = c.DefaultIntensity
	}
	return t.Minutes * mult
}

// DayLoad is the summed session load of a record; nil counts as zero.
func (c TrainingConfig) DayLoad(r *day.Record) float64 {
	if r == nil {
		return 0
	}
	var load float64
	for _, t := range r.Trainings {
		load += c.SessionLoad(t)
	}
	return load
}

// SessionWeight is the diminishing-returns weight of the index-th session.
func (c TrainingConfig) SessionWeight(load float64, index int) float64 {
	w := Clamp(math.Sqrt(load/c.LoadUnit)*c.Gain, c.MinWeight, c.MaxWeight)
	if len(c.SessionFactors) == 0 {
		return w
	}
	if index >= len(c.SessionFactors) {
		index = len(c.SessionFactors) - 1
	}
	return w * c.SessionFactors[index]
}

func (s *Scorer) scoreTraining(in Input, res *Result) {
	cfg := s.cfg.Training
	rec := in.Record

	_, days := s.samples(in.Window, func(r *day.Record) float64 { return cfg.DayLoad(r) })
	conf := s.cfg.ConfidenceFor(days)

	type timed struct {
		t      day.Training
		minute int
		ok     bool
	}
	sessions := make([]timed, 0, len(rec.Trainings))
	for _, t := range rec.Trainings {
		m, ok := day.ParseClock(t.Time)
		sessions = append(sessions, timed{t: t, minute: m, ok: ok})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].ok != sessions[j].ok {
			return sessions[i].ok
		}
		return sessions[i].minute < sessions[j].minute
	})

	n := 0
	for _, sess := range sessions {
		load := cfg.SessionLoad(sess.t)
		if load <= 0 {
			continue
		}
		res.Load += load
		w := res.add(CategoryTraining, cfg.SessionWeight(load, n), conf)
		n++
		label := fmt.Sprintf("Training: %s %.0f min", sess.t.Type, sess.t.Minutes)
		if sess.ok {
			res.Sessions = append(res.Sessions, Session{
				Start: sess.minute,
				End:   sess.minute + int(math.Round(sess.t.Minutes)),
				Load:  load,
				Timed: true,
			})
			res.Events = append(res.Events, timedEvent(CategoryTraining, sess.minute, w, label, ""))
			continue
		}
		res.Sessions = append(res.Sessions, Session{Load: load})
		res.Events = append(res.Events, untimedEvent(CategoryTraining, s.cfg.Keys.TrainingRest, w, label, ""))
	}
	if n > 0 || !rec.HasActivity() {
		return
	}

	if res.YesterdayLoad > cfg.HeavyLoad {
		w := res.add(CategoryTraining, cfg.RecoveryBonus, conf)
		res.Events = append(res.Events, untimedEvent(CategoryTraining, s.cfg.Keys.TrainingRest, w, "Planned recovery day", ""))
		return
	}

	streak := 0
	for i := 1; i <= in.Window.Len(); i++ {
		r := in.Window.Ago(i)
		if r == nil || cfg.DayLoad(r) > 0 {
			break
		}
		streak++
	}
	if streak < cfg.StreakMinDays {
		return
	}
	var weekly float64
	for i := 1; i <= 7; i++ {
		weekly += cfg.DayLoad(in.Window.Ago(i))
	}
	target := in.Profile.WeeklyTrainingLoad
	if target <= 0 {
		target = cfg.DefaultWeeklyLoad
	}
	if weekly >= target {
		return
	}
	penalty := -math.Min(cfg.StreakStep*float64(streak), cfg.StreakCap)
	w := res.add(CategoryTraining, penalty, conf)
	label := fmt.Sprintf("No training for %d days", streak+1)
	res.Events = append(res.Events, untimedEvent(CategoryTraining, s.cfg.Keys.TrainingRest, w, label, "training streak broken"))
}
