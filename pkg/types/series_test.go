package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// TestSeries_PutReplacesExistingTimestamp tests that Put overwrites in place
func TestSeries_PutReplacesExistingTimestamp(t *testing.T) {
	s := NewSeries()
	s.Put(day(0), 1.0)
	s.Put(day(0), 2.0)

	assert.Equal(t, 1, s.Len())
	v, ok := s.At(day(0))
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
}

// TestSeries_ValuesAreChronological tests that out-of-order inserts come back sorted
func TestSeries_ValuesAreChronological(t *testing.T) {
	s := NewSeries()
	s.Put(day(2), 3.0)
	s.Put(day(0), 1.0)
	s.Put(day(1), 2.0)

	assert.Equal(t, []float64{1.0, 2.0, 3.0}, s.Values())
	assert.Equal(t, []time.Time{day(0), day(1), day(2)}, s.Timestamps())
}

// TestAlignSeries_IntersectsTimestamps tests that only shared timestamps survive
func TestAlignSeries_IntersectsTimestamps(t *testing.T) {
	a := SeriesFromValues([]time.Time{day(0), day(1), day(2)}, []float64{1, 2, 3})
	b := SeriesFromValues([]time.Time{day(1), day(2), day(3)}, []float64{20, 30, 40})

	common, aligned := AlignSeries(map[string]*Series{"a": a, "b": b})

	assert.Equal(t, []time.Time{day(1), day(2)}, common)
	assert.Equal(t, []float64{2, 3}, aligned["a"])
	assert.Equal(t, []float64{20, 30}, aligned["b"])
}

// TestAlignSeries_NoOverlap tests disjoint series produce an empty intersection
func TestAlignSeries_NoOverlap(t *testing.T) {
	a := SeriesFromValues([]time.Time{day(0)}, []float64{1})
	b := SeriesFromValues([]time.Time{day(1)}, []float64{2})

	common, aligned := AlignSeries(map[string]*Series{"a": a, "b": b})

	assert.Empty(t, common)
	assert.Empty(t, aligned["a"])
	assert.Empty(t, aligned["b"])
}

// TestAlignSeries_Empty tests the degenerate no-series input
func TestAlignSeries_Empty(t *testing.T) {
	common, aligned := AlignSeries(nil)
	assert.Nil(t, common)
	assert.Empty(t, aligned)
}

// TestPositions_TotalValue tests position value summation
func TestPositions_TotalValue(t *testing.T) {
	p := Positions{"BTCUSDT": 5000, "ETHUSDT": 3000}
	assert.Equal(t, 8000.0, p.TotalValue())
}

// TestPositions_Weights tests weight calculation against the portfolio value
func TestPositions_Weights(t *testing.T) {
	p := Positions{"BTCUSDT": 2500, "ETHUSDT": 7500}
	w := p.Weights(10000)
	assert.InDelta(t, 0.25, w["BTCUSDT"], 1e-9)
	assert.InDelta(t, 0.75, w["ETHUSDT"], 1e-9)
}

// TestPositions_WeightsZeroPortfolio tests that a non-positive value yields no weights
func TestPositions_WeightsZeroPortfolio(t *testing.T) {
	p := Positions{"BTCUSDT": 2500}
	assert.Empty(t, p.Weights(0))
}
