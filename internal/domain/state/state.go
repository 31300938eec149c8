// Package state maps today's activity and momentum to a display state and
// selects the message pool shown with it.
package state

import (
	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/factors"
)

// State is the user-facing momentum state.
type State string

const (
	Empty    State = "EMPTY"
	Strong   State = "STRONG"
	Growing  State = "GROWING"
	Building State = "BUILDING"
	Recovery State = "RECOVERY"
	Broken   State = "BROKEN"
)

// Pools that override the state's own pool.
const (
	PoolPostTraining     = "post_training"
	PoolDeficitOvershoot = "deficit_overshoot"
)

// Config holds the momentum thresholds and message pools.
type Config struct {
	Strong              float64             `yaml:"strong"`
	Growing             float64             `yaml:"growing"`
	Building            float64             `yaml:"building"`
	Recovery            float64             `yaml:"recovery"` // strictly above
	PostTrainingMinutes int                 `yaml:"post_training_minutes"`
	Messages            map[string][]string `yaml:"messages"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Strong:              0.75,
		Growing:             0.45,
		Building:            0.20,
		Recovery:            0.05,
		PostTrainingMinutes: 120,
		Messages: map[string][]string{
			string(Empty):        {"Log your first action to start today's chain."},
			string(Strong):       {"Momentum is at its peak. Keep the rhythm.", "Strong streak. Protect it tonight."},
			string(Growing):      {"Momentum is growing day by day.", "Good pace. One more step keeps it rising."},
			string(Building):     {"You're building a base. Consistency beats intensity."},
			string(Recovery):     {"Recovering. Small wins count today."},
			string(Broken):       {"The chain broke. Start a new one with the next meal."},
			PoolPostTraining:     {"Recovery window is open: get protein in within two hours."},
			PoolDeficitOvershoot: {"Today ran over the deficit target. Keep the evening light."},
		},
	}
}

// Classify returns EMPTY when nothing happened today, otherwise the band the
// momentum falls into.
func (c Config) Classify(hasEvents bool, momentum float64) State {
	switch {
	case !hasEvents:
		return Empty
	case momentum >= c.Strong:
		return Strong
	case momentum >= c.Growing:
		return Growing
	case momentum >= c.Building:
		return Building
	case momentum > c.Recovery:
		return Recovery
	default:
		return Broken
	}
}

// PoolInput is what pool selection looks at besides the state.
type PoolInput struct {
	State    State
	Sessions []factors.Session
	// RefMinute is the reference minute of day, or -1 when the reference
	// time is not on the scored day.
	RefMinute int
	Profile   day.Profile
	Ratio     float64
}

// Pool picks the message pool. The post-training window takes precedence
// over a deficit overshoot; neither changes the state itself.
func (c Config) Pool(in PoolInput) string {
	if in.RefMinute >= 0 {
		for _, s := range in.Sessions {
			if s.Timed && in.RefMinute >= s.End && in.RefMinute <= s.End+c.PostTrainingMinutes {
				return PoolPostTraining
			}
		}
	}
	if in.Profile.Goal == day.GoalDeficit && in.Profile.TargetRange.Max > 0 && in.Ratio > in.Profile.TargetRange.Max {
		return PoolDeficitOvershoot
	}
	return string(in.State)
}

// Message picks a message from pool; seed makes the choice stable for a day.
func (c Config) Message(pool string, seed int) string {
	msgs := c.Messages[pool]
	if len(msgs) == 0 {
		return ""
	}
	if seed < 0 {
		seed = -seed
	}
	return msgs[seed%len(msgs)]
}
