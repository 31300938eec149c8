package timing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cascade/internal/domain/day"
)

type brokenAnalyzer struct{ panic bool }

func (b brokenAnalyzer) Analyze(Input) (Analysis, error) {
	if b.panic {
		panic("boom")
	}
	return Analysis{Gaps: []Gap{{Minutes: 1}}}, errors.New("failed")
}

func TestWaveAnalyzer_OverlapsAndGaps(t *testing.T) {
	in := Input{
		Meals: []day.Meal{
			{Time: "08:00"},
			{Time: "09:30"},
			{Time: "14:00"},
			{Time: "nonsense"},
		},
		Calories: []float64{600, 300, 500, 200},
	}

	res, err := NewWaveAnalyzer().Analyze(in)
	require.NoError(t, err)

	// 08:00 + 90 + 60 = 10:30 overlaps the 09:30 meal by 60 minutes.
	require.Len(t, res.Overlaps, 1)
	assert.Equal(t, 0, res.Overlaps[0].First)
	assert.Equal(t, 1, res.Overlaps[0].Second)
	assert.InDelta(t, 60, res.Overlaps[0].Minutes, 1e-9)

	// 09:30 + 120 = 11:30, next meal at 14:00.
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, 1, res.Gaps[0].After)
	assert.InDelta(t, 150, res.Gaps[0].Minutes, 1e-9)
}

func TestWaveAnalyzer_MismatchedCalories(t *testing.T) {
	_, err := NewWaveAnalyzer().Analyze(Input{Meals: []day.Meal{{Time: "08:00"}}})
	assert.Error(t, err)
}

func TestSafe_SwallowsFailures(t *testing.T) {
	for _, a := range []Analyzer{nil, brokenAnalyzer{}, brokenAnalyzer{panic: true}} {
		res, ok := Safe(a, Input{})
		assert.False(t, ok)
		assert.Empty(t, res.Gaps)
	}

	_, ok := Safe(Noop{}, Input{})
	assert.True(t, ok)
}

func TestSafe_LogsFailuresAtDebug(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	_, ok := Safe(brokenAnalyzer{}, Input{})
	require.False(t, ok)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), "timing analyzer failed")

	buf.Reset()
	_, ok = Safe(brokenAnalyzer{panic: true}, Input{})
	require.False(t, ok)
	assert.Contains(t, buf.String(), "timing analyzer panicked")
	assert.Contains(t, buf.String(), `"panic":"boom"`)
}
