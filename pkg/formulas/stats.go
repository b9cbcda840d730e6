package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily return series.
const TradingDaysPerYear = 252

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev returns the sample standard deviation, or 0 for fewer than two points.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Correlation returns the Pearson correlation of two equal-length slices,
// or 0 when the inputs cannot be correlated.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// Percentile returns the p-th percentile (0-100) of data using linear
// interpolation between order statistics.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}

// CalculateReturns converts a price series to simple period returns.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// AnnualizedVolatility scales the standard deviation of daily returns by
// the square root of the trading year.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CumulativeCurve compounds a return series into a wealth curve starting at 1.
func CumulativeCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	value := 1.0
	for i, r := range returns {
		value *= 1 + r
		curve[i] = value
	}
	return curve
}

// MaxDrawdown returns the largest peak-to-trough decline of a value curve
// as a positive fraction (0.25 means a 25% decline).
func MaxDrawdown(curve []float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	maxDD := 0.0
	peak := curve[0]
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// MaxDrawdownFromReturns compounds returns into a wealth curve and returns
// its maximum drawdown.
func MaxDrawdownFromReturns(returns []float64) float64 {
	return MaxDrawdown(CumulativeCurve(returns))
}

// SharpeRatio annualizes mean excess return over annualized volatility.
// Zero volatility yields 0.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) float64 {
	vol := AnnualizedVolatility(dailyReturns)
	if vol == 0 {
		return 0
	}
	dailyRF := riskFreeRate / TradingDaysPerYear
	excess := Mean(dailyReturns) - dailyRF
	return excess * TradingDaysPerYear / vol
}
