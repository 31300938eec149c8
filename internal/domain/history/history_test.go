package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ref = time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC)

func TestPutIfAbsent_NeverOverwrites(t *testing.T) {
	h := History{}
	assert.True(t, h.PutIfAbsent(ref, 0.4))
	assert.False(t, h.PutIfAbsent(ref, 0.9))
	v, ok := h.Get(ref)
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)

	h.Put(ref, 0.9)
	v, _ = h.Get(ref)
	assert.Equal(t, 0.9, v)
}

func TestPrune_Retention(t *testing.T) {
	h := History{}
	h.Put(ref, 0.5)
	h.Put(ref.AddDate(0, 0, -35), 0.3)
	h.Put(ref.AddDate(0, 0, -36), 0.2)
	h.Put(ref.AddDate(0, 0, -60), 0.1)
	h["garbage"] = 1

	removed := h.Prune(ref, 35)
	assert.Equal(t, 3, removed)
	assert.Len(t, h, 2)
	// Exactly 35 days old stays, 36 goes.
	_, ok := h["2026-02-24"]
	assert.True(t, ok)
	_, ok = h["2026-02-23"]
	assert.False(t, ok)
}

func TestValues_DateOrder(t *testing.T) {
	h := History{"2026-03-02": 0.2, "2026-03-01": 0.1, "2026-03-03": 0.3}
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, h.Values())
	assert.Equal(t, []string{"2026-03-01", "2026-03-02", "2026-03-03"}, h.Keys())

	c := h.Clone()
	c["2026-03-01"] = 9
	assert.Equal(t, 0.1, h["2026-03-01"])
}
