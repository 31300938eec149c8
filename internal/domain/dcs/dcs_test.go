package dcs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/factors"
)

func deficit() day.Profile {
	return day.Profile{
		Goal:         day.GoalDeficit,
		CalorieNorm:  1800,
		TargetRange:  day.Range{Min: 0.8, Max: 0.95},
		CriticalOver: 1.1,
	}
}

func TestNormalize_BaseClamp(t *testing.T) {
	c := DefaultConfig()
	assert.InDelta(t, 0.55, c.Normalize(Input{Raw: 5.5, Profile: day.DefaultProfile()}).Value, 1e-9)
	assert.InDelta(t, 1.0, c.Normalize(Input{Raw: 14, Profile: day.DefaultProfile()}).Value, 1e-9)
	res := c.Normalize(Input{Raw: -9, Profile: day.DefaultProfile()})
	assert.InDelta(t, -0.3, res.Value, 1e-9)
	assert.Empty(t, res.Override)
}

func TestNormalize_CriticalOverrides(t *testing.T) {
	c := DefaultConfig()
	p := day.DefaultProfile()

	res := c.Normalize(Input{Raw: 8, Profile: p, Intake: factors.Intake{Ratio: 1.6, NightUnsafe: true}})
	assert.Equal(t, -1.0, res.Value)
	assert.Equal(t, OverrideNightExcess, res.Override)

	res = c.Normalize(Input{Raw: 8, Profile: p, Intake: factors.Intake{Ratio: 1.0, NightUnsafe: true}})
	assert.Equal(t, -0.8, res.Value)

	res = c.Normalize(Input{Raw: 8, Profile: p, Intake: factors.Intake{Ratio: 1.51}})
	assert.Equal(t, -0.6, res.Value)
	assert.Equal(t, OverrideExcess, res.Override)

	res = c.Normalize(Input{Raw: 8, Profile: p, Intake: factors.Intake{Ratio: 1.5}})
	assert.InDelta(t, 0.8, res.Value, 1e-9)
}

func TestNormalize_SurplusExemption(t *testing.T) {
	c := DefaultConfig()
	p := day.DefaultProfile()
	p.Goal = day.GoalSurplus

	res := c.Normalize(Input{Raw: 4, Profile: p, Intake: factors.Intake{Ratio: 1.7}})
	assert.True(t, res.Exempt)
	assert.Empty(t, res.Override)
	assert.InDelta(t, 0.4, res.Value, 1e-9)

	res = c.Normalize(Input{Raw: 4, Profile: p, Intake: factors.Intake{Ratio: 1.85}})
	assert.Equal(t, -0.6, res.Value)

	// Night-unsafe is never exempt.
	res = c.Normalize(Input{Raw: 4, Profile: p, Intake: factors.Intake{Ratio: 1.7, NightUnsafe: true}})
	assert.Equal(t, -1.0, res.Value)
}

func TestNormalize_DeficitTiers(t *testing.T) {
	c := DefaultConfig()
	p := deficit()

	cases := []struct {
		name     string
		ratio    float64
		training bool
		want     float64
		override string
	}{
		{"within target", 0.9, false, 0.5, ""},
		{"over target max", 1.0, false, -0.4, OverrideDeficitRange},
		{"over critical", 1.2, false, -0.5, OverrideDeficitOver},
		{"over critical margin", 1.31, false, -0.7, OverrideDeficitCritical},
		{"training day relaxes target", 1.1, true, 0.5, ""},
		{"training day over critical", 1.4, true, -0.5, OverrideDeficitOver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := c.Normalize(Input{Raw: 5, Profile: p, TrainingDay: tc.training, Intake: factors.Intake{Ratio: tc.ratio}})
			assert.InDelta(t, tc.want, res.Value, 1e-9)
			assert.Equal(t, tc.override, res.Override)
		})
	}
}

func TestNormalize_StrongerOverrideWins(t *testing.T) {
	c := DefaultConfig()
	res := c.Normalize(Input{Raw: 5, Profile: deficit(), Intake: factors.Intake{Ratio: 1.6, NightUnsafe: true}})
	assert.Equal(t, -1.0, res.Value)
	assert.Equal(t, OverrideNightExcess, res.Override)

	res = c.Normalize(Input{Raw: 5, Profile: deficit(), Intake: factors.Intake{Ratio: 1.6}})
	assert.Equal(t, -0.7, res.Value)
}

func TestNormalize_RangeProperty(t *testing.T) {
	c := DefaultConfig()
	rng := rand.New(rand.NewSource(42))
	goals := []day.Goal{day.GoalMaintain, day.GoalDeficit, day.GoalSurplus}
	for i := 0; i < 2000; i++ {
		p := deficit()
		p.Goal = goals[rng.Intn(len(goals))]
		res := c.Normalize(Input{
			Raw:         rng.Float64()*30 - 15,
			Profile:     p,
			TrainingDay: rng.Intn(2) == 0,
			Intake:      factors.Intake{Ratio: rng.Float64() * 2.5, NightUnsafe: rng.Intn(5) == 0},
		})
		assert.GreaterOrEqual(t, res.Value, -1.0)
		assert.LessOrEqual(t, res.Value, 1.0)
		if res.Value < -0.3 {
			assert.Contains(t, c.Overrides(), res.Value)
		}
	}
}
