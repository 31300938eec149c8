package day

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"07:30", 450, true},
		{"0:05", 5, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"7:3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"12:60", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseClock(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
	assert.Equal(t, "01:30", FormatClock(1530))
	assert.Equal(t, "23:00", FormatClock(-60))
}

func TestQuantity_TolerantDecoding(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"date":"2026-10-01","measurements":{"waist":"81.5","hips":94,"neck":"n/a"}}`), &rec)
	require.NoError(t, err)
	assert.Equal(t, Quantity(81.5), rec.Measurements["waist"])
	assert.Equal(t, Quantity(94), rec.Measurements["hips"])
	assert.Equal(t, Quantity(0), rec.Measurements["neck"])
	assert.Equal(t, 2, rec.RecordedMeasurements())

	var yrec Record
	err = yaml.Unmarshal([]byte("date: 2026-10-01\nmeasurements:\n  waist: '80,2'\n  chest: [1, 2]\n"), &yrec)
	require.NoError(t, err)
	assert.InDelta(t, 80.2, float64(yrec.Measurements["waist"]), 1e-9)
	assert.Equal(t, Quantity(0), yrec.Measurements["chest"])
}

func TestRecord_SleepAndOnset(t *testing.T) {
	rec := &Record{SleepOnset: "23:30", SleepEnd: "07:00"}
	assert.InDelta(t, 7.5, rec.SleepDuration(), 1e-9)

	onset, ok := rec.OnsetMinutes()
	require.True(t, ok)
	assert.Equal(t, 23*60+30, onset)

	late := &Record{SleepOnset: "00:45"}
	onset, ok = late.OnsetMinutes()
	require.True(t, ok)
	assert.Equal(t, 24*60+45, onset)

	explicit := &Record{SleepOnset: "bad", SleepHours: 6.25}
	assert.InDelta(t, 6.25, explicit.SleepDuration(), 1e-9)
	_, ok = explicit.OnsetMinutes()
	assert.False(t, ok)
}

func TestRecord_HasActivity(t *testing.T) {
	var nilRec *Record
	assert.False(t, nilRec.HasActivity())
	assert.False(t, (&Record{Date: "2026-10-01"}).HasActivity())
	assert.False(t, (&Record{SleepOnset: "garbage"}).HasActivity())
	assert.True(t, (&Record{Steps: 10}).HasActivity())
	assert.True(t, (&Record{SupplementsPlanned: 2}).HasActivity())

	assert.False(t, (&Record{Trainings: []Training{{Type: "run", Minutes: 0}}}).HasActivity())
	assert.False(t, (&Record{Meals: []Meal{{Time: "08:00"}, {Time: "12:00"}}}).HasActivity())
	assert.True(t, (&Record{Trainings: []Training{{Type: "run", Minutes: 20}}}).HasActivity())
	assert.True(t, (&Record{Meals: []Meal{{Time: "08:00", Items: []Item{{FoodID: "oats"}}}}}).HasActivity())
}

func TestRecord_LoggedMealsAndTrainedMinutes(t *testing.T) {
	r := &Record{
		Meals:     []Meal{{Time: "08:00"}, {Time: "12:00", Items: []Item{{FoodID: "rice", Grams: 150}}}},
		Trainings: []Training{{Type: "walk", Minutes: 25}, {Type: "run", Minutes: -5}, {Type: "yoga"}},
	}
	assert.Equal(t, 1, r.LoggedMeals())
	assert.Equal(t, 25.0, r.TrainedMinutes())
}

func TestWindow_Ago(t *testing.T) {
	y := &Record{Date: "2026-10-18"}
	w := Window{Days: []*Record{y, nil}}
	assert.Same(t, y, w.Ago(1))
	assert.Nil(t, w.Ago(2))
	assert.Nil(t, w.Ago(0))
	assert.Nil(t, w.Ago(5))
	assert.Len(t, w.Trailing(14), 2)
}
