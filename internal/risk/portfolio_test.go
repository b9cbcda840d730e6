package risk

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantforge/riskengine/pkg/types"
)

func returnSeries(seed int64, n int, scale float64) *types.Series {
	rng := rand.New(rand.NewSource(seed))
	s := types.NewSeries()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Put(start.AddDate(0, 0, i), (rng.Float64()-0.5)*scale)
	}
	return s
}

// TestCalculatePortfolioRisk_EmptyBook tests the neutral metrics for no positions
func TestCalculatePortfolioRisk_EmptyBook(t *testing.T) {
	e := testEngine()
	m := e.CalculatePortfolioRisk(types.Positions{}, nil, 10000)

	assert.Equal(t, 1, m.RiskScore)
	assert.Equal(t, 1.0, m.Beta)
	assert.Equal(t, 0.0, m.VaR95)
}

// TestCalculatePortfolioRisk_InsufficientHistory tests neutral metrics below the overlap floor
func TestCalculatePortfolioRisk_InsufficientHistory(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 5000}
	history := map[string]*types.Series{"BTCUSDT": returnSeries(1, 10, 0.02)}

	m := e.CalculatePortfolioRisk(positions, history, 10000)

	assert.Equal(t, 0.0, m.VaR95)
	assert.Equal(t, 1.0, m.ConcentrationRisk) // single position
	assert.GreaterOrEqual(t, m.RiskScore, 1)
}

// TestCalculatePortfolioRisk_ScoreStaysInRange tests the composite score bounds
func TestCalculatePortfolioRisk_ScoreStaysInRange(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 6000, "ETHUSDT": 4000}
	history := map[string]*types.Series{
		"BTCUSDT": returnSeries(1, 120, 0.20), // violently volatile
		"ETHUSDT": returnSeries(2, 120, 0.20),
	}

	m := e.CalculatePortfolioRisk(positions, history, 10000)

	assert.GreaterOrEqual(t, m.RiskScore, 1)
	assert.LessOrEqual(t, m.RiskScore, 10)
	assert.Greater(t, m.VaR95, 0.0)
	assert.GreaterOrEqual(t, m.ExpectedShortfall95, m.VaR95)
}

// TestCalculatePortfolioRisk_VaROrdering tests that the 99% tail is at least the 95% tail
func TestCalculatePortfolioRisk_VaROrdering(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 5000, "ETHUSDT": 5000}
	history := map[string]*types.Series{
		"BTCUSDT": returnSeries(3, 250, 0.04),
		"ETHUSDT": returnSeries(4, 250, 0.04),
	}

	m := e.CalculatePortfolioRisk(positions, history, 10000)

	assert.GreaterOrEqual(t, m.VaR99, m.VaR95)
}

// TestConcentrationRisk_EqualWeightIsZero tests the normalized Herfindahl floor
func TestConcentrationRisk_EqualWeightIsZero(t *testing.T) {
	positions := types.Positions{"A": 2500, "B": 2500, "C": 2500, "D": 2500}
	assert.InDelta(t, 0.0, concentrationRisk(positions, 10000), 1e-9)
}

// TestConcentrationRisk_SinglePositionIsOne tests the Herfindahl ceiling
func TestConcentrationRisk_SinglePositionIsOne(t *testing.T) {
	positions := types.Positions{"A": 10000}
	assert.Equal(t, 1.0, concentrationRisk(positions, 10000))
}

// TestCorrelationRisk_IdenticalSeries tests that clones correlate fully
func TestCorrelationRisk_IdenticalSeries(t *testing.T) {
	a := returnSeries(5, 60, 0.02)
	b := types.NewSeries()
	for _, ts := range a.Timestamps() {
		v, _ := a.At(ts)
		b.Put(ts, v)
	}

	risk := correlationRisk(map[string]*types.Series{"A": a, "B": b})
	assert.InDelta(t, 1.0, risk, 1e-9)
}

// TestCorrelationRisk_SingleSymbol tests that one position has no pair risk
func TestCorrelationRisk_SingleSymbol(t *testing.T) {
	risk := correlationRisk(map[string]*types.Series{"A": returnSeries(6, 60, 0.02)})
	assert.Equal(t, 0.0, risk)
}

// TestExpectedShortfall_EmptyTailFallsBackToVaR tests the ES fallback
func TestExpectedShortfall_EmptyTailFallsBackToVaR(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.03}
	assert.Equal(t, 0.05, expectedShortfall(returns, 0.05))
}

// TestExpectedShortfall_AveragesTail tests the tail mean magnitude
func TestExpectedShortfall_AveragesTail(t *testing.T) {
	returns := []float64{-0.10, -0.06, 0.01, 0.02}
	assert.InDelta(t, 0.08, expectedShortfall(returns, 0.05), 1e-9)
}

// TestCheckRiskLimits_WithinLimits tests a compliant book
func TestCheckRiskLimits_WithinLimits(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 500, "ETHUSDT": 400}

	result := e.CheckRiskLimits(positions, 10000, nil)

	assert.True(t, result.WithinLimits)
	assert.Empty(t, result.Violations)
}

// TestCheckRiskLimits_OversizedPosition tests a single position above the cap
func TestCheckRiskLimits_OversizedPosition(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 2000}

	result := e.CheckRiskLimits(positions, 10000, nil)

	assert.False(t, result.WithinLimits)
	assert.NotEmpty(t, result.Violations)
	assert.NotEmpty(t, result.Recommendations)
}

// TestCheckRiskLimits_ProposedPositionFoldsIn tests that the hypothetical is included
func TestCheckRiskLimits_ProposedPositionFoldsIn(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 800}

	result := e.CheckRiskLimits(positions, 10000, &ProposedPosition{Symbol: "BTCUSDT", Value: 800})

	assert.False(t, result.WithinLimits)
}

// TestCheckRiskLimits_NearLimitWarns tests the 90% headroom warning band
func TestCheckRiskLimits_NearLimitWarns(t *testing.T) {
	e := testEngine()
	positions := types.Positions{"BTCUSDT": 950}

	result := e.CheckRiskLimits(positions, 10000, nil)

	assert.True(t, result.WithinLimits)
	assert.NotEmpty(t, result.Warnings)
}

// TestCheckRiskLimits_BadPortfolioValue tests the degenerate portfolio input
func TestCheckRiskLimits_BadPortfolioValue(t *testing.T) {
	e := testEngine()
	result := e.CheckRiskLimits(types.Positions{"BTCUSDT": 100}, 0, nil)
	assert.False(t, result.WithinLimits)
}
