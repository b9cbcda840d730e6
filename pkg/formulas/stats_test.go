package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMean_Empty tests that an empty slice yields zero
func TestMean_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
}

// TestMean_Values tests the arithmetic mean
func TestMean_Values(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

// TestStdDev_SinglePoint tests that fewer than two points yields zero
func TestStdDev_SinglePoint(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{1.5}))
}

// TestStdDev_Values tests the sample standard deviation
func TestStdDev_Values(t *testing.T) {
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-9)
}

// TestCorrelation_PerfectlyCorrelated tests correlation of a scaled copy
func TestCorrelation_PerfectlyCorrelated(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-9)
}

// TestCorrelation_ConstantSeries tests that a flat series yields zero instead of NaN
func TestCorrelation_ConstantSeries(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{5, 5, 5, 5}
	assert.Equal(t, 0.0, Correlation(x, y))
}

// TestCorrelation_MismatchedLengths tests that unequal slices yield zero
func TestCorrelation_MismatchedLengths(t *testing.T) {
	assert.Equal(t, 0.0, Correlation([]float64{1, 2, 3}, []float64{1, 2}))
}

// TestPercentile_Median tests the interpolated median
func TestPercentile_Median(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, Percentile(data, 50), 1e-9)
}

// TestPercentile_DoesNotMutateInput tests that the input order survives
func TestPercentile_DoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	Percentile(data, 50)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

// TestCalculateReturns_Simple tests simple period returns
func TestCalculateReturns_Simple(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

// TestCalculateReturns_TooShort tests that one price yields no returns
func TestCalculateReturns_TooShort(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))
}

// TestAnnualizedVolatility_ScalesBySqrtOfYear tests the annualization factor
func TestAnnualizedVolatility_ScalesBySqrtOfYear(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, -0.02}
	expected := StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-12)
}

// TestMaxDrawdown_MonotonicRise tests that a rising curve has no drawdown
func TestMaxDrawdown_MonotonicRise(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 1.1, 1.2, 1.3}))
}

// TestMaxDrawdown_PeakToTrough tests the largest decline is measured from the peak
func TestMaxDrawdown_PeakToTrough(t *testing.T) {
	curve := []float64{1.0, 1.5, 0.9, 1.2}
	assert.InDelta(t, 0.4, MaxDrawdown(curve), 1e-9)
}

// TestMaxDrawdownFromReturns_CompoundsFirst tests drawdown of a compounded return series
func TestMaxDrawdownFromReturns_CompoundsFirst(t *testing.T) {
	returns := []float64{0.10, -0.20, 0.05}
	dd := MaxDrawdownFromReturns(returns)
	assert.InDelta(t, 0.20, dd, 1e-9)
}

// TestSharpeRatio_ZeroVolatility tests that a flat series yields zero
func TestSharpeRatio_ZeroVolatility(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.01, 0.01}, 0.02))
}

// TestSharpeRatio_PositiveExcessReturn tests the sign of a profitable series
func TestSharpeRatio_PositiveExcessReturn(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.005, 0.015, 0.01}
	assert.Greater(t, SharpeRatio(returns, 0.0), 0.0)
}
