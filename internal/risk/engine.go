package risk

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantforge/riskengine/pkg/formulas"
)

// Minimum observation counts below which a sizing model is considered
// degenerate and the conservative fallback is used instead.
const (
	minKellyObservations  = 30
	minReturnObservations = 20

	// fallbackFraction is the conservative recommendation used whenever
	// history is absent or degenerate: 1% of the portfolio.
	fallbackFraction = 0.01
)

// Engine computes position-sizing recommendations and portfolio risk
// metrics. All calculations are pure; the only mutable state is the limit
// set, which can be swapped via Reconfigure.
type Engine struct {
	mu     sync.RWMutex
	limits RiskLimits
	params SizingParams
	log    zerolog.Logger
}

// NewEngine creates a risk engine with the given limits and sizing knobs.
func NewEngine(limits RiskLimits, params SizingParams, log zerolog.Logger) *Engine {
	return &Engine{limits: limits, params: params, log: log}
}

// Reconfigure replaces the engine's limits and sizing parameters.
// In-flight calculations keep the values they started with.
func (e *Engine) Reconfigure(limits RiskLimits, params SizingParams) {
	e.mu.Lock()
	e.limits = limits
	e.params = params
	e.mu.Unlock()
}

// Limits returns a copy of the current limit set.
func (e *Engine) Limits() RiskLimits {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limits
}

// CalculatePositionSize sizes a position with the requested method.
// Insufficient or degenerate history never fails the call: it produces a
// conservative 1%-of-portfolio recommendation with lowered confidence and
// an explaining warning. The only error is an unknown method tag.
func (e *Engine) CalculatePositionSize(req SizingRequest) (PositionSizeRecommendation, error) {
	e.mu.RLock()
	limits, params := e.limits, e.params
	e.mu.RUnlock()

	if req.CurrentPrice <= 0 || req.PortfolioValue <= 0 {
		return e.fallback(req, limits, "non-positive price or portfolio value"), nil
	}

	var (
		fraction  float64
		conf      float64
		rationale string
		warnings  []string
	)

	switch req.Method {
	case SizingKelly:
		fraction, conf, rationale, warnings = kellyFraction(req.HistoricalReturns, params)
	case SizingRiskParity:
		fraction, conf, rationale, warnings = riskParityFraction(req.HistoricalReturns, params)
	case SizingVolatility:
		fraction, conf, rationale, warnings = volatilityFraction(req.HistoricalReturns, params)
	case SizingFixedFractional:
		fraction = params.FixedFraction
		conf = 0.9
		rationale = fmt.Sprintf("fixed fraction %.1f%% of portfolio", fraction*100)
	case SizingMaxDrawdown:
		fraction, conf, rationale, warnings = drawdownFraction(req.HistoricalReturns, params)
	case SizingEqualWeight:
		if params.TargetPositions <= 0 {
			fraction = fallbackFraction
			warnings = append(warnings, "target position count not configured")
			conf = 0.2
			rationale = "equal weight unavailable, conservative fallback"
		} else {
			fraction = 1.0 / float64(params.TargetPositions)
			conf = 0.9
			rationale = fmt.Sprintf("equal weight across %d target positions", params.TargetPositions)
		}
	default:
		return PositionSizeRecommendation{}, fmt.Errorf("unknown sizing method %d", int(req.Method))
	}

	if fraction < 0 {
		fraction = 0
	}
	if fraction > limits.MaxPositionSize {
		fraction = limits.MaxPositionSize
		warnings = append(warnings, fmt.Sprintf("capped at max position size %.1f%%", limits.MaxPositionSize*100))
	}

	value := req.PortfolioValue * fraction
	maxValue := req.PortfolioValue * limits.MaxPositionSize

	rec := PositionSizeRecommendation{
		Symbol:           req.Symbol,
		RecommendedSize:  value / req.CurrentPrice,
		MinSize:          value / req.CurrentPrice * 0.5,
		MaxSize:          maxValue / req.CurrentPrice,
		Method:           req.Method,
		Confidence:       conf,
		RiskContribution: fraction,
		Rationale:        rationale,
		Warnings:         warnings,
	}
	e.log.Debug().
		Str("symbol", req.Symbol).
		Str("method", req.Method.String()).
		Float64("fraction", fraction).
		Float64("confidence", conf).
		Msg("position size calculated")
	return rec, nil
}

// fallback builds the conservative 1% recommendation used for degenerate inputs.
func (e *Engine) fallback(req SizingRequest, limits RiskLimits, reason string) PositionSizeRecommendation {
	fraction := math.Min(fallbackFraction, limits.MaxPositionSize)
	size := 0.0
	maxSize := 0.0
	if req.CurrentPrice > 0 {
		size = req.PortfolioValue * fraction / req.CurrentPrice
		maxSize = req.PortfolioValue * limits.MaxPositionSize / req.CurrentPrice
	}
	return PositionSizeRecommendation{
		Symbol:           req.Symbol,
		RecommendedSize:  size,
		MinSize:          size * 0.5,
		MaxSize:          maxSize,
		Method:           req.Method,
		Confidence:       0.2,
		RiskContribution: fraction,
		Rationale:        "conservative fallback sizing",
		Warnings:         []string{reason},
	}
}

// kellyFraction implements the Kelly criterion on the historical win/loss
// split, clamped to the configured maximum Kelly fraction.
func kellyFraction(returns []float64, params SizingParams) (float64, float64, string, []string) {
	if len(returns) < minKellyObservations {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{fmt.Sprintf("need at least %d return observations for Kelly, got %d", minKellyObservations, len(returns))}
	}

	var gains, losses []float64
	for _, r := range returns {
		if r > 0 {
			gains = append(gains, r)
		} else if r < 0 {
			losses = append(losses, r)
		}
	}
	if len(gains) == 0 || len(losses) == 0 {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{"return history has no losses or no gains, Kelly undefined"}
	}

	winRate := float64(len(gains)) / float64(len(returns))
	avgGain := formulas.Mean(gains)
	avgLoss := math.Abs(formulas.Mean(losses))
	if avgLoss == 0 || avgGain == 0 {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{"zero average gain or loss, Kelly undefined"}
	}

	b := avgGain / avgLoss
	kelly := (b*winRate - (1 - winRate)) / b
	kelly = math.Max(0, math.Min(kelly, params.MaxKellyFraction))

	conf := 0.5 + 0.4*math.Min(1, float64(len(returns))/252)
	rationale := fmt.Sprintf("Kelly fraction %.3f (win rate %.1f%%, payoff ratio %.2f)", kelly, winRate*100, b)
	var warnings []string
	if kelly == 0 {
		warnings = append(warnings, "negative Kelly edge, sizing floored at zero")
	}
	return kelly, conf, rationale, warnings
}

// riskParityFraction targets an equal share of the portfolio's risk budget
// for each of the configured target positions.
func riskParityFraction(returns []float64, params SizingParams) (float64, float64, string, []string) {
	if len(returns) < minReturnObservations {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{fmt.Sprintf("need at least %d return observations for risk parity, got %d", minReturnObservations, len(returns))}
	}
	assetVol := formulas.AnnualizedVolatility(returns)
	if assetVol == 0 {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{"zero asset volatility, risk parity undefined"}
	}
	if params.TargetPositions <= 0 {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{"target position count not configured"}
	}

	riskBudget := 1.0 / float64(params.TargetPositions)
	fraction := riskBudget * params.TargetVolatility / assetVol
	conf := 0.5 + 0.4*math.Min(1, float64(len(returns))/252)
	rationale := fmt.Sprintf("risk parity: %.1f%% risk budget at %.1f%% asset volatility", riskBudget*100, assetVol*100)
	return fraction, conf, rationale, nil
}

// volatilityFraction scales the base fraction inversely with the asset's
// annualized volatility.
func volatilityFraction(returns []float64, params SizingParams) (float64, float64, string, []string) {
	if len(returns) < minReturnObservations {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{fmt.Sprintf("need at least %d return observations for volatility sizing, got %d", minReturnObservations, len(returns))}
	}
	assetVol := formulas.AnnualizedVolatility(returns)
	if assetVol == 0 {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{"zero asset volatility, volatility sizing undefined"}
	}

	fraction := params.BaseFraction * params.TargetVolatility / assetVol
	conf := 0.5 + 0.4*math.Min(1, float64(len(returns))/252)
	rationale := fmt.Sprintf("volatility scaling: target %.1f%% vs asset %.1f%%", params.TargetVolatility*100, assetVol*100)
	return fraction, conf, rationale, nil
}

// drawdownFraction scales the base fraction by the ratio of acceptable to
// historically observed maximum drawdown.
func drawdownFraction(returns []float64, params SizingParams) (float64, float64, string, []string) {
	if len(returns) < minReturnObservations {
		return fallbackFraction, 0.2, "conservative fallback sizing",
			[]string{fmt.Sprintf("need at least %d return observations for drawdown sizing, got %d", minReturnObservations, len(returns))}
	}

	histDD := formulas.MaxDrawdownFromReturns(returns)
	fraction := params.BaseFraction
	var warnings []string
	if histDD == 0 {
		warnings = append(warnings, "no historical drawdown observed, using base fraction unscaled")
	} else {
		fraction = params.BaseFraction * params.AcceptableDrawdown / histDD
	}
	conf := 0.5 + 0.4*math.Min(1, float64(len(returns))/252)
	rationale := fmt.Sprintf("drawdown scaling: acceptable %.1f%% vs historical %.1f%%", params.AcceptableDrawdown*100, histDD*100)
	return fraction, conf, rationale, warnings
}
