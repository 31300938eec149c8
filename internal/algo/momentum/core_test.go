package momentum

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/cascade/internal/domain/history"
)

var today = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return today.AddDate(0, 0, -n) }

func TestCalculate_SkipsAbsentDays(t *testing.T) {
	h := history.History{}
	h.Put(daysAgo(0), 0.8)
	h.Put(daysAgo(3), 0.2)

	mc := NewMomentumCore(DefaultConfig())
	res := mc.Calculate(MomentumInput{History: h, Today: today, DayFraction: 1, Ceiling: 1})

	w3 := math.Pow(0.95, 3)
	assert.InDelta(t, (0.8+0.2*w3)/(1+w3), res.Value, 1e-9)
	assert.Equal(t, 2, res.IncludedDays)
}

func TestCalculate_PartialTodayWeight(t *testing.T) {
	h := history.History{}
	h.Put(daysAgo(0), 0.0)
	h.Put(daysAgo(1), 0.6)

	mc := NewMomentumCore(DefaultConfig())
	early := mc.Calculate(MomentumInput{History: h, Today: today, DayFraction: 0.05, Ceiling: 1})
	assert.InDelta(t, 0.2, early.TodayWeight, 1e-9)
	assert.InDelta(t, 0.6*0.95/(0.2+0.95), early.Value, 1e-9)

	late := mc.Calculate(MomentumInput{History: h, Today: today, DayFraction: 1, Ceiling: 1})
	assert.Less(t, late.Value, early.Value)
}

func TestCalculate_Bounds(t *testing.T) {
	mc := NewMomentumCore(DefaultConfig())

	empty := mc.Calculate(MomentumInput{History: history.History{}, Today: today, DayFraction: 1, Ceiling: 0.8})
	assert.Zero(t, empty.Value)
	assert.Equal(t, TrendFlat, empty.Trend)

	h := history.History{}
	for i := 0; i < 10; i++ {
		h.Put(daysAgo(i), 1.0)
	}
	capped := mc.Calculate(MomentumInput{History: h, Today: today, DayFraction: 1, Ceiling: 0.8})
	assert.Equal(t, 0.8, capped.Value)
	assert.InDelta(t, 1.0, capped.Unclamped, 1e-9)

	neg := history.History{}
	neg.Put(daysAgo(1), -0.8)
	assert.Zero(t, mc.Calculate(MomentumInput{History: neg, Today: today, DayFraction: 1, Ceiling: 1}).Value)
}

func TestCalculate_IgnoresEntriesOutsideWindow(t *testing.T) {
	h := history.History{}
	h.Put(daysAgo(30), 1.0)
	h.Put(daysAgo(2), 0.4)
	res := NewMomentumCore(DefaultConfig()).Calculate(MomentumInput{History: h, Today: today, DayFraction: 1, Ceiling: 1})
	assert.InDelta(t, 0.4, res.Value, 1e-9)
}

func TestCalculateTrend(t *testing.T) {
	mc := NewMomentumCore(DefaultConfig())

	up := history.History{}
	up.Put(daysAgo(1), 0.6)
	up.Put(daysAgo(2), 0.5)
	up.Put(daysAgo(4), 0.3)
	up.Put(daysAgo(6), 0.2)
	assert.Equal(t, TrendUp, mc.CalculateTrend(up, today))

	down := history.History{}
	down.Put(daysAgo(0), 0.1)
	down.Put(daysAgo(1), 0.2)
	down.Put(daysAgo(3), 0.2)
	down.Put(daysAgo(5), 0.6)
	down.Put(daysAgo(8), 0.7)
	assert.Equal(t, TrendDown, mc.CalculateTrend(down, today))

	flat := history.History{}
	flat.Put(daysAgo(0), 0.5)
	flat.Put(daysAgo(2), 0.5)
	flat.Put(daysAgo(4), 0.5)
	flat.Put(daysAgo(5), 0.47)
	assert.Equal(t, TrendFlat, mc.CalculateTrend(flat, today))

	// Entries every fourth day still form both groups.
	sparse := history.History{}
	for i, v := range []float64{0.8, 0.8, 0.8, 0.3, 0.3} {
		sparse.Put(daysAgo(4*i), v)
	}
	assert.Equal(t, TrendUp, mc.CalculateTrend(sparse, today))

	// Only the next four entries count as older.
	capped := history.History{}
	for i, v := range []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.0, 0.0} {
		capped.Put(daysAgo(i), v)
	}
	assert.Equal(t, TrendFlat, mc.CalculateTrend(capped, today))

	// Three entries or fewer: undefined, reported flat.
	recentOnly := history.History{}
	recentOnly.Put(daysAgo(0), 0.9)
	recentOnly.Put(daysAgo(2), 0.1)
	recentOnly.Put(daysAgo(9), 0.1)
	assert.Equal(t, TrendFlat, mc.CalculateTrend(recentOnly, today))

	// Entries outside the momentum window are ignored.
	stale := history.History{}
	for i := 0; i < 3; i++ {
		stale.Put(daysAgo(i), 0.9)
	}
	stale.Put(daysAgo(30), 0.1)
	assert.Equal(t, TrendFlat, mc.CalculateTrend(stale, today))
}

func TestCalculatePeakDays(t *testing.T) {
	mc := NewMomentumCore(DefaultConfig())
	h := history.History{}
	h.Put(daysAgo(1), 0.9)
	h.Put(daysAgo(2), 0.7)
	h.Put(daysAgo(3), 0.69)
	h.Put(daysAgo(4), 0.95)
	assert.Equal(t, 2, mc.CalculatePeakDays(h, today))

	h.Put(daysAgo(0), 0.3)
	assert.Equal(t, 0, mc.CalculatePeakDays(h, today))
}

func TestDayFraction(t *testing.T) {
	ref := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 0.5, DayFraction(today, ref), 1e-9)
	assert.Equal(t, 1.0, DayFraction(daysAgo(1), ref))
}
