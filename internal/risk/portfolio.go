package risk

import (
	"math"

	"github.com/quantforge/riskengine/pkg/formulas"
	"github.com/quantforge/riskengine/pkg/types"
)

// minCommonObservations is the number of shared timestamps required before
// portfolio-level statistics are considered meaningful.
const minCommonObservations = 30

// Composite risk score breakpoints. Heuristic calibrations: kept as named
// constants so they can be retuned without touching the scoring walk.
const (
	scoreVaRLow       = 0.02
	scoreVaRMid       = 0.03
	scoreVaRHigh      = 0.05
	scoreVolLow       = 0.15
	scoreVolHigh      = 0.25
	scoreDDLow        = 0.10
	scoreDDHigh       = 0.20
	scoreConcLow      = 0.40
	scoreConcHigh     = 0.70
	scoreCorrElevated = 0.70
)

// CalculatePortfolioRisk computes the portfolio risk metrics from the
// weighted return series restricted to the timestamps shared by every
// position's history. Fewer than minCommonObservations shared points
// yields neutral metrics instead of an error.
func (e *Engine) CalculatePortfolioRisk(positions types.Positions, history map[string]*types.Series, portfolioValue float64) RiskMetrics {
	e.mu.RLock()
	riskFree := e.params.RiskFreeRate
	e.mu.RUnlock()

	neutral := RiskMetrics{Beta: 1.0, RiskScore: 1}
	if len(positions) == 0 || portfolioValue <= 0 {
		return neutral
	}

	neutral.ConcentrationRisk = concentrationRisk(positions, portfolioValue)

	held := make(map[string]*types.Series, len(positions))
	for symbol := range positions {
		s, ok := history[symbol]
		if !ok || s == nil {
			e.log.Debug().Str("symbol", symbol).Msg("no return history for position")
			continue
		}
		held[symbol] = s
	}
	if len(held) != len(positions) {
		return withScore(neutral)
	}

	common, aligned := types.AlignSeries(held)
	if len(common) < minCommonObservations {
		e.log.Debug().Int("common_points", len(common)).Msg("insufficient overlapping history for portfolio risk")
		return withScore(neutral)
	}

	weights := positions.Weights(portfolioValue)
	portfolioReturns := make([]float64, len(common))
	for symbol, values := range aligned {
		w := weights[symbol]
		for i, v := range values {
			portfolioReturns[i] += w * v
		}
	}

	m := RiskMetrics{
		VaR95:             math.Abs(formulas.Percentile(portfolioReturns, 5)),
		VaR99:             math.Abs(formulas.Percentile(portfolioReturns, 1)),
		MaxDrawdown:       formulas.MaxDrawdownFromReturns(portfolioReturns),
		Volatility:        formulas.AnnualizedVolatility(portfolioReturns),
		SharpeRatio:       formulas.SharpeRatio(portfolioReturns, riskFree),
		Beta:              1.0, // no benchmark series in the caller contract
		ConcentrationRisk: neutral.ConcentrationRisk,
		CorrelationRisk:   correlationRisk(held),
	}
	m.ExpectedShortfall95 = expectedShortfall(portfolioReturns, m.VaR95)
	m.ExpectedShortfall99 = expectedShortfall(portfolioReturns, m.VaR99)
	m.RiskScore = compositeRiskScore(m)
	return m
}

func withScore(m RiskMetrics) RiskMetrics {
	m.RiskScore = compositeRiskScore(m)
	return m
}

// expectedShortfall averages the loss magnitude of returns at or below the
// negative VaR cutoff, falling back to the VaR itself on an empty tail.
func expectedShortfall(returns []float64, valueAtRisk float64) float64 {
	var tail []float64
	for _, r := range returns {
		if r <= -valueAtRisk {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return valueAtRisk
	}
	return math.Abs(formulas.Mean(tail))
}

// concentrationRisk is the normalized Herfindahl index of position
// weights: 0 for a perfectly equal-weight book, 1 for a single position.
func concentrationRisk(positions types.Positions, portfolioValue float64) float64 {
	n := len(positions)
	if n == 0 || portfolioValue <= 0 {
		return 0
	}
	if n == 1 {
		return 1
	}
	hhi := 0.0
	for _, w := range positions.Weights(portfolioValue) {
		hhi += w * w
	}
	equal := 1.0 / float64(n)
	normalized := (hhi - equal) / (1 - equal)
	return math.Max(0, math.Min(1, normalized))
}

// correlationRisk is the mean absolute pairwise correlation across all
// position pairs with enough overlapping history.
func correlationRisk(held map[string]*types.Series) float64 {
	symbols := make([]string, 0, len(held))
	for s := range held {
		symbols = append(symbols, s)
	}
	if len(symbols) < 2 {
		return 0
	}

	sum, pairs := 0.0, 0
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			pair := map[string]*types.Series{
				symbols[i]: held[symbols[i]],
				symbols[j]: held[symbols[j]],
			}
			common, aligned := types.AlignSeries(pair)
			if len(common) < minCommonObservations {
				continue
			}
			sum += math.Abs(formulas.Correlation(aligned[symbols[i]], aligned[symbols[j]]))
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return math.Min(1, sum/float64(pairs))
}

// compositeRiskScore walks the metric thresholds and accumulates an
// integer score in [1, 10].
func compositeRiskScore(m RiskMetrics) int {
	score := 1

	switch {
	case m.VaR95 > scoreVaRHigh:
		score += 3
	case m.VaR95 > scoreVaRMid:
		score += 2
	case m.VaR95 > scoreVaRLow:
		score++
	}

	switch {
	case m.Volatility > scoreVolHigh:
		score += 2
	case m.Volatility > scoreVolLow:
		score++
	}

	switch {
	case m.MaxDrawdown > scoreDDHigh:
		score += 2
	case m.MaxDrawdown > scoreDDLow:
		score++
	}

	switch {
	case m.ConcentrationRisk > scoreConcHigh:
		score += 2
	case m.ConcentrationRisk > scoreConcLow:
		score++
	}

	if m.CorrelationRisk > scoreCorrElevated {
		score++
	}

	if score > 10 {
		score = 10
	}
	return score
}
