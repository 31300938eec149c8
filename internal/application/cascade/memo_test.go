package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/metrics"
)

func TestMemoizer_HitWithinDay(t *testing.T) {
	ctx := context.Background()
	m := NewMemoizer(4, nil)
	e := NewEngine(nil, newRepo())
	in := Input{Record: activeRecord("2026-06-10"), Profile: day.DefaultProfile(), At: evening}

	a, err := m.Compute(ctx, e, in)
	require.NoError(t, err)

	in.At = evening.Add(30 * time.Minute)
	b, err := m.Compute(ctx, e, in)
	require.NoError(t, err)
	assert.Same(t, a, b)

	in.At = evening.Add(6 * time.Hour)
	c, err := m.Compute(ctx, e, in)
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 2, stats.Entries)
}

func TestMemoizer_Invalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoizer(4, nil)
	e := NewEngine(nil, newRepo())
	in := Input{Record: activeRecord("2026-06-10"), Profile: day.DefaultProfile(), At: evening}

	a, err := m.Compute(ctx, e, in)
	require.NoError(t, err)
	m.Invalidate()
	assert.Zero(t, m.Stats().Entries)

	b, err := m.Compute(ctx, e, in)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, a.DailyContribution, b.DailyContribution)
	assert.Equal(t, uint64(1), m.Stats().Generation)
	assert.Equal(t, int64(2), m.Stats().Misses)
}

func TestMemoizer_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemoizer(2, nil)
	e := NewEngine(nil, newRepo())
	input := func(steps int) Input {
		return Input{Record: &day.Record{Date: "2026-06-10", Steps: steps}, At: evening}
	}

	_, err := m.Compute(ctx, e, input(1000))
	require.NoError(t, err)
	_, err = m.Compute(ctx, e, input(2000))
	require.NoError(t, err)
	_, err = m.Compute(ctx, e, input(1000)) // touch
	require.NoError(t, err)
	_, err = m.Compute(ctx, e, input(3000)) // evicts 2000
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Entries)

	_, err = m.Compute(ctx, e, input(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Stats().Hits)
}

func TestMemoizer_ErrorsAreNotCached(t *testing.T) {
	m := NewMemoizer(0, nil)
	e := NewEngine(nil, newRepo())
	_, err := m.Compute(context.Background(), e, Input{Record: &day.Record{Date: "bad"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, m.Stats().Entries)
}

func TestMemoizer_RecordsMetrics(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())
	m := NewMemoizer(4, reg)
	e := NewEngine(nil, newRepo(), WithMetrics(reg))
	in := Input{Record: activeRecord("2026-06-10"), At: evening}

	_, err := m.Compute(context.Background(), e, in)
	require.NoError(t, err)
	_, err = m.Compute(context.Background(), e, in)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg.MemoHits))
	assert.Equal(t, 1.0, counterValue(t, reg.MemoMisses))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
