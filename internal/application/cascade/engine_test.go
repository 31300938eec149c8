package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/history"
	"github.com/sawpanic/cascade/internal/domain/state"
	"github.com/sawpanic/cascade/internal/domain/timing"
	"github.com/sawpanic/cascade/internal/persistence"
)

var (
	scoredDay = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	evening   = time.Date(2026, 6, 10, 21, 0, 0, 0, time.UTC)
)

func newRepo() *persistence.HistoryRepo {
	return persistence.NewHistoryRepo(persistence.NewMemory(), 4, "test", 35)
}

func activeRecord(date string) *day.Record {
	return &day.Record{
		Date: date,
		Meals: []day.Meal{
			{Time: "08:00", Items: []day.Item{{FoodID: "oats", Grams: 80, Calories: 450}}},
			{Time: "13:00", Items: []day.Item{{FoodID: "salad", Grams: 300, Calories: 600}}},
		},
		Trainings:  []day.Training{{Time: "18:00", Type: "run", Minutes: 40}},
		SleepOnset: "23:00",
		SleepHours: 7.5,
		Steps:      9000,
		Weight:     72.0,
	}
}

func fullWindow() day.Window {
	w := day.Window{Days: make([]*day.Record, 14)}
	for i := range w.Days {
		if i == 1 {
			continue // missing day
		}
		w.Days[i] = activeRecord(day.DateKey(scoredDay.AddDate(0, 0, -(i + 1))))
	}
	return w
}

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(context.Context) (history.History, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return history.History{}, nil
}

func (s *failingStore) Save(context.Context, history.History, time.Time) error {
	s.saves++
	return s.saveErr
}

func TestCompute_InvalidInput(t *testing.T) {
	e := NewEngine(nil, newRepo())

	_, err := e.Compute(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.Compute(context.Background(), Input{Record: &day.Record{Date: "10/06/2026"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompute_EmptyDay(t *testing.T) {
	e := NewEngine(nil, newRepo())
	res, err := e.Compute(context.Background(), Input{
		Record:  &day.Record{Date: "2026-06-10"},
		Profile: day.DefaultProfile(),
		At:      evening,
	})
	require.NoError(t, err)

	assert.Equal(t, state.Empty, res.State)
	assert.Zero(t, res.ChainLength)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.History)
	assert.Zero(t, res.Momentum)
	assert.NotEmpty(t, res.Message)
	assert.False(t, res.Degraded)
}

func TestCompute_UntrackedEntriesAreEmpty(t *testing.T) {
	yesterday := &day.Record{
		Date:      "2026-06-09",
		Trainings: []day.Training{{Time: "07:00", Type: "run", Minutes: 90}},
	}
	cases := map[string]*day.Record{
		"zero-minute session": {
			Date:      "2026-06-10",
			Trainings: []day.Training{{Time: "07:00", Type: "run"}},
		},
		"meals without items": {
			Date:  "2026-06-10",
			Meals: []day.Meal{{Time: "08:00"}, {Time: "09:00"}},
		},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(nil, newRepo(), WithAnalyzer(timing.NewWaveAnalyzer()))
			res, err := e.Compute(context.Background(), Input{
				Record:  rec,
				Window:  day.Window{Days: []*day.Record{yesterday}},
				Profile: day.DefaultProfile(),
				At:      evening,
			})
			require.NoError(t, err)

			assert.Equal(t, state.Empty, res.State)
			assert.Empty(t, res.Events)
			assert.Zero(t, res.ChainLength)
			_, ok := res.History.Get(scoredDay)
			assert.False(t, ok)
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Record:  activeRecord("2026-06-10"),
		Window:  fullWindow(),
		Profile: day.DefaultProfile(),
		At:      evening,
	}
	a, err := NewEngine(nil, newRepo()).Compute(context.Background(), in)
	require.NoError(t, err)
	b, err := NewEngine(nil, newRepo()).Compute(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCompute_Invariants(t *testing.T) {
	res, err := NewEngine(nil, newRepo()).Compute(context.Background(), Input{
		Record:  activeRecord("2026-06-10"),
		Window:  fullWindow(),
		Profile: day.DefaultProfile(),
		At:      evening,
	})
	require.NoError(t, err)

	assert.NotEqual(t, state.Empty, res.State)
	assert.GreaterOrEqual(t, res.MaxChainToday, res.ChainLength)
	positives := 0
	for _, ev := range res.Events {
		if ev.Positive {
			positives++
		}
	}
	assert.LessOrEqual(t, res.ChainLength, positives)
	assert.GreaterOrEqual(t, res.DailyContribution, -1.0)
	assert.LessOrEqual(t, res.DailyContribution, 1.0)
	assert.GreaterOrEqual(t, res.Ceiling.Value, 0.0)
	assert.LessOrEqual(t, res.Ceiling.Value, 1.0)
	assert.GreaterOrEqual(t, res.Momentum, 0.0)
	assert.LessOrEqual(t, res.Momentum, res.Ceiling.Value)

	today, ok := res.History.Get(scoredDay)
	require.True(t, ok)
	assert.Equal(t, res.DailyContribution, today)
}

func TestCompute_BackfillIsIdempotent(t *testing.T) {
	repo := newRepo()
	e := NewEngine(nil, repo)
	in := Input{
		Record:  activeRecord("2026-06-10"),
		Window:  fullWindow(),
		Profile: day.DefaultProfile(),
		At:      evening,
	}

	first, err := e.Compute(context.Background(), in)
	require.NoError(t, err)
	// 14 window slots, one missing.
	assert.Len(t, first.BackfilledDates, 13)
	assert.NotContains(t, first.BackfilledDates, day.DateKey(scoredDay.AddDate(0, 0, -2)))

	second, err := e.Compute(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, second.BackfilledDates)
	assert.Equal(t, first.History, second.History)

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.History, stored)
}

func TestCompute_TodayOverwrites(t *testing.T) {
	repo := newRepo()
	e := NewEngine(nil, repo)
	rec := activeRecord("2026-06-10")
	_, err := e.Compute(context.Background(), Input{Record: rec, Profile: day.DefaultProfile(), At: evening})
	require.NoError(t, err)

	lighter := &day.Record{Date: "2026-06-10", Steps: 1200}
	res, err := e.Compute(context.Background(), Input{Record: lighter, Profile: day.DefaultProfile(), At: evening})
	require.NoError(t, err)

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	v, ok := stored.Get(scoredDay)
	require.True(t, ok)
	assert.Equal(t, res.DailyContribution, v)
}

func TestCompute_Retention(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	old := history.History{}
	old.Put(scoredDay.AddDate(0, 0, -40), 0.5)
	old.Put(scoredDay.AddDate(0, 0, -10), 0.6)
	require.NoError(t, repo.Save(ctx, old, scoredDay.AddDate(0, 0, -10)))

	res, err := NewEngine(nil, repo).Compute(ctx, Input{
		Record:  activeRecord("2026-06-10"),
		Profile: day.DefaultProfile(),
		At:      evening,
	})
	require.NoError(t, err)

	_, ok := res.History.Get(scoredDay.AddDate(0, 0, -40))
	assert.False(t, ok)
	v, ok := res.History.Get(scoredDay.AddDate(0, 0, -10))
	assert.True(t, ok)
	assert.Equal(t, 0.6, v)
}

func TestCompute_LoadFailureDegrades(t *testing.T) {
	store := &failingStore{loadErr: errors.New("connection refused")}
	res, err := NewEngine(nil, store).Compute(context.Background(), Input{
		Record:  activeRecord("2026-06-10"),
		Window:  fullWindow(),
		Profile: day.DefaultProfile(),
		At:      evening,
	})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.Zero(t, store.saves)
	_, ok := res.History.Get(scoredDay)
	assert.True(t, ok)
	assert.NotEqual(t, state.Empty, res.State)
}

func TestCompute_SaveFailureDegrades(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	res, err := NewEngine(nil, store).Compute(context.Background(), Input{
		Record:  activeRecord("2026-06-10"),
		Profile: day.DefaultProfile(),
		At:      evening,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
	assert.True(t, res.Degraded)
}

func TestCompute_PostTrainingPool(t *testing.T) {
	e := NewEngine(nil, newRepo())
	rec := activeRecord("2026-06-10")

	res, err := e.Compute(context.Background(), Input{
		Record:  rec,
		Profile: day.DefaultProfile(),
		At:      time.Date(2026, 6, 10, 19, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, state.PoolPostTraining, res.MessagePool)

	res, err = e.Compute(context.Background(), Input{
		Record:  rec,
		Profile: day.DefaultProfile(),
		At:      time.Date(2026, 6, 11, 19, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, string(res.State), res.MessagePool)
}

func TestRefMinute(t *testing.T) {
	assert.Equal(t, 19*60+30, refMinute(scoredDay, time.Date(2026, 6, 10, 19, 30, 0, 0, time.UTC)))
	assert.Equal(t, -1, refMinute(scoredDay, time.Date(2026, 6, 11, 0, 5, 0, 0, time.UTC)))
	assert.Equal(t, -1, refMinute(scoredDay, time.Time{}))
}
