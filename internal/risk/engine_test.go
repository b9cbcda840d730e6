package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/riskengine/internal/logger"
)

func testEngine() *Engine {
	limits := RiskLimits{
		MaxPortfolioRisk: 0.05,
		MaxPositionSize:  0.10,
		MaxLeverage:      1.0,
	}
	params := SizingParams{
		MaxKellyFraction:   0.25,
		BaseFraction:       0.05,
		TargetVolatility:   0.15,
		FixedFraction:      0.05,
		TargetPositions:    10,
		AcceptableDrawdown: 0.10,
		RiskFreeRate:       0.02,
	}
	return NewEngine(limits, params, logger.Nop())
}

// winningReturns builds a long history with a positive edge.
func winningReturns(n int) []float64 {
	rng := rand.New(rand.NewSource(7))
	out := make([]float64, n)
	for i := range out {
		if rng.Float64() < 0.6 {
			out[i] = 0.02
		} else {
			out[i] = -0.01
		}
	}
	return out
}

// TestCalculatePositionSize_UnknownMethod tests that a bad method tag is a hard error
func TestCalculatePositionSize_UnknownMethod(t *testing.T) {
	e := testEngine()
	_, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000, Method: SizingMethod(99),
	})
	assert.Error(t, err)
}

// TestCalculatePositionSize_FallbackOnNoHistory tests the conservative 1% fallback
func TestCalculatePositionSize_FallbackOnNoHistory(t *testing.T) {
	e := testEngine()
	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000, Method: SizingKelly,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.01, rec.RiskContribution, 1e-9)
	assert.InDelta(t, 1.0, rec.RecommendedSize, 1e-9) // 1% of 10k at $100
	assert.Equal(t, 0.2, rec.Confidence)
	assert.NotEmpty(t, rec.Warnings)
}

// TestCalculatePositionSize_FallbackOnBadPrice tests degenerate price inputs
func TestCalculatePositionSize_FallbackOnBadPrice(t *testing.T) {
	e := testEngine()
	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 0, PortfolioValue: 10000, Method: SizingFixedFractional,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.RecommendedSize)
	assert.NotEmpty(t, rec.Warnings)
}

// TestCalculatePositionSize_KellyIsClamped tests the Kelly cap
func TestCalculatePositionSize_KellyIsClamped(t *testing.T) {
	e := testEngine()
	// Almost-certain wins drive raw Kelly far above the cap.
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = 0.03
	}
	returns[0] = -0.001

	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000,
		Method: SizingKelly, HistoricalReturns: returns,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, rec.RiskContribution, 0.10) // also bounded by max position size
	assert.Greater(t, rec.RiskContribution, 0.0)
}

// TestCalculatePositionSize_KellyNegativeEdge tests that a losing edge floors at zero
func TestCalculatePositionSize_KellyNegativeEdge(t *testing.T) {
	e := testEngine()
	returns := make([]float64, 60)
	for i := range returns {
		if i%4 == 0 {
			returns[i] = 0.01
		} else {
			returns[i] = -0.02
		}
	}

	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000,
		Method: SizingKelly, HistoricalReturns: returns,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.RiskContribution)
	assert.NotEmpty(t, rec.Warnings)
}

// TestCalculatePositionSize_FixedFractional tests the fixed fraction path
func TestCalculatePositionSize_FixedFractional(t *testing.T) {
	e := testEngine()
	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "ETHUSDT", CurrentPrice: 50, PortfolioValue: 10000, Method: SizingFixedFractional,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, rec.RiskContribution, 1e-9)
	assert.InDelta(t, 10.0, rec.RecommendedSize, 1e-9) // 5% of 10k at $50
	assert.InDelta(t, 5.0, rec.MinSize, 1e-9)
	assert.InDelta(t, 20.0, rec.MaxSize, 1e-9) // 10% cap at $50
}

// TestCalculatePositionSize_EqualWeight tests 1/N sizing
func TestCalculatePositionSize_EqualWeight(t *testing.T) {
	e := testEngine()
	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "SOLUSDT", CurrentPrice: 100, PortfolioValue: 10000, Method: SizingEqualWeight,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, rec.RiskContribution, 1e-9) // 1/10 targets
}

// TestCalculatePositionSize_CapsAtMaxPositionSize tests the limit cap and warning
func TestCalculatePositionSize_CapsAtMaxPositionSize(t *testing.T) {
	e := testEngine()
	e.Reconfigure(e.Limits(), SizingParams{
		FixedFraction: 0.50, TargetPositions: 10, MaxKellyFraction: 0.25,
		BaseFraction: 0.05, TargetVolatility: 0.15, AcceptableDrawdown: 0.10,
	})

	rec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000, Method: SizingFixedFractional,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, rec.RiskContribution, 1e-9)
	assert.NotEmpty(t, rec.Warnings)
}

// TestCalculatePositionSize_VolatilityScalesInverse tests that calmer assets size larger
func TestCalculatePositionSize_VolatilityScalesInverse(t *testing.T) {
	e := testEngine()

	calm := make([]float64, 60)
	wild := make([]float64, 60)
	for i := range calm {
		if i%2 == 0 {
			calm[i], wild[i] = 0.001, 0.03
		} else {
			calm[i], wild[i] = -0.001, -0.03
		}
	}

	calmRec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "CALM", CurrentPrice: 100, PortfolioValue: 10000,
		Method: SizingVolatility, HistoricalReturns: calm,
	})
	require.NoError(t, err)
	wildRec, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "WILD", CurrentPrice: 100, PortfolioValue: 10000,
		Method: SizingVolatility, HistoricalReturns: wild,
	})
	require.NoError(t, err)

	assert.Greater(t, calmRec.RiskContribution, wildRec.RiskContribution)
}

// TestCalculatePositionSize_ConfidenceGrowsWithHistory tests the confidence ramp
func TestCalculatePositionSize_ConfidenceGrowsWithHistory(t *testing.T) {
	e := testEngine()

	short, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000,
		Method: SizingKelly, HistoricalReturns: winningReturns(40),
	})
	require.NoError(t, err)
	long, err := e.CalculatePositionSize(SizingRequest{
		Symbol: "BTCUSDT", CurrentPrice: 100, PortfolioValue: 10000,
		Method: SizingKelly, HistoricalReturns: winningReturns(300),
	})
	require.NoError(t, err)

	assert.Greater(t, long.Confidence, short.Confidence)
	assert.InDelta(t, 0.9, long.Confidence, 1e-9) // ramp saturates at a full year
}
