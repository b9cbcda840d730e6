package stoploss

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantforge/riskengine/internal/config"
	"github.com/quantforge/riskengine/pkg/formulas"
	"github.com/quantforge/riskengine/pkg/types"
)

// Volatility-scale bounds for the volatility-adjusted stop. Daily
// volatility times volScaleFactor gives the scale, clamped so a quiet
// market never halves the stop below half the base and a violent one
// never widens it past triple.
const (
	volScaleFactor = 50.0
	volScaleMin    = 0.5
	volScaleMax    = 3.0
)

// StopRequest carries the inputs for one stop-loss calculation.
type StopRequest struct {
	Symbol     string
	EntryPrice float64
	Direction  Direction
	Method     StopMethod
	Candles    []types.OHLCV
}

// TakeProfitRequest carries the inputs for one take-profit calculation.
// StopPrice anchors risk-reward based targets; zero means the default
// stop percentage is assumed instead.
type TakeProfitRequest struct {
	Symbol     string
	EntryPrice float64
	Direction  Direction
	Method     TakeProfitMethod
	Candles    []types.OHLCV
	StopPrice  float64
	Ratio      float64 // override for the configured risk-reward ratio, 0 keeps the default
}

// Manager computes stop-loss and take-profit levels. Parameters come
// from the stop_loss and take_profit configuration sections and can be
// swapped at runtime via Reconfigure.
type Manager struct {
	mu   sync.RWMutex
	stop config.StopLossConfig
	tp   config.TakeProfitConfig
	log  zerolog.Logger
}

// NewManager creates a stop-loss manager with the given parameters.
func NewManager(stop config.StopLossConfig, tp config.TakeProfitConfig, log zerolog.Logger) *Manager {
	return &Manager{stop: stop, tp: tp, log: log}
}

// Reconfigure replaces the manager's parameters.
func (m *Manager) Reconfigure(stop config.StopLossConfig, tp config.TakeProfitConfig) {
	m.mu.Lock()
	m.stop = stop
	m.tp = tp
	m.mu.Unlock()
}

// CalculateStopLoss computes a stop level with the requested method.
// Insufficient data never fails the call: it produces the default-
// percentage stop with a warning. The only errors are a non-positive
// entry price and an unknown method tag.
func (m *Manager) CalculateStopLoss(req StopRequest) (StopLossLevel, error) {
	m.mu.RLock()
	cfg := m.stop
	m.mu.RUnlock()

	if req.EntryPrice <= 0 {
		return StopLossLevel{}, fmt.Errorf("entry price must be positive, got %v", req.EntryPrice)
	}

	var level StopLossLevel
	switch req.Method {
	case StopATR:
		level = atrStop(req, cfg)
	case StopPercentage:
		level = percentageStop(req, cfg.DefaultStopPct, 0.8, "fixed percentage stop")
	case StopTrailing:
		level = trailingStop(req, cfg)
	case StopSupportResistance:
		level = supportResistanceStop(req, cfg)
	case StopVolatility:
		level = volatilityStop(req, cfg)
	case StopTimeBased:
		level = percentageStop(req, cfg.DefaultStopPct, 0.6, "time-based stop at default percentage")
		level.Warnings = append(level.Warnings,
			fmt.Sprintf("close the position after %d days regardless of price", cfg.TimeStopDays))
	default:
		return StopLossLevel{}, fmt.Errorf("unknown stop-loss method %d", int(req.Method))
	}

	level.Symbol = req.Symbol
	level.Method = req.Method
	m.log.Debug().
		Str("symbol", req.Symbol).
		Str("method", req.Method.String()).
		Float64("stop_price", level.Price).
		Float64("stop_pct", level.Percentage).
		Msg("stop loss calculated")
	return level, nil
}

// atrStop places the stop an ATR multiple away from entry, clamped to
// the configured percentage bounds.
func atrStop(req StopRequest, cfg config.StopLossConfig) StopLossLevel {
	atr := averageTrueRange(req.Candles, cfg.ATRPeriod)
	if atr <= 0 {
		return fallbackStop(req, cfg,
			fmt.Sprintf("need at least %d candles for ATR, got %d", cfg.ATRPeriod+1, len(req.Candles)))
	}

	pct := clampPct(atr*cfg.ATRMultiplier/req.EntryPrice, cfg)
	level := buildStop(req, pct, 0.85,
		fmt.Sprintf("%.1fx ATR (%.4f) below entry", cfg.ATRMultiplier, atr))
	return level
}

// trailingStop starts as a fixed-percentage stop that tightens once
// price crosses the activation threshold.
func trailingStop(req StopRequest, cfg config.StopLossConfig) StopLossLevel {
	pct := clampPct(cfg.TrailingPct, cfg)
	level := buildStop(req, pct, 0.75,
		fmt.Sprintf("trailing %.1f%% stop, activates %.1f%% into profit", pct*100, cfg.TrailingActivationPct*100))
	level.Dynamic = true
	level.ActivationPrice = req.EntryPrice * (1 + req.Direction.sign()*cfg.TrailingActivationPct)
	return level
}

// supportResistanceStop anchors the stop below the recent swing low for
// longs or above the recent swing high for shorts, with a small buffer.
// A level further than the maximum stop distance falls back to the
// percentage method.
func supportResistanceStop(req StopRequest, cfg config.StopLossConfig) StopLossLevel {
	if len(req.Candles) < cfg.SupportLookback {
		return fallbackStop(req, cfg,
			fmt.Sprintf("need at least %d candles for support/resistance, got %d", cfg.SupportLookback, len(req.Candles)))
	}

	window := req.Candles[len(req.Candles)-cfg.SupportLookback:]
	var price float64
	if req.Direction == DirectionLong {
		low := window[0].Low
		for _, c := range window[1:] {
			if c.Low < low {
				low = c.Low
			}
		}
		price = low * (1 - cfg.SupportBuffer)
	} else {
		high := window[0].High
		for _, c := range window[1:] {
			if c.High > high {
				high = c.High
			}
		}
		price = high * (1 + cfg.SupportBuffer)
	}

	pct := math.Abs(req.EntryPrice-price) / req.EntryPrice
	if pct > cfg.MaxStopPct || pct < cfg.MinStopPct {
		level := fallbackStop(req, cfg,
			fmt.Sprintf("support/resistance level %.1f%% from entry is outside the %.1f%%-%.1f%% bounds",
				pct*100, cfg.MinStopPct*100, cfg.MaxStopPct*100))
		return level
	}

	level := buildStop(req, pct, 0.8,
		fmt.Sprintf("%.1f%% buffer past the %d-bar swing level", cfg.SupportBuffer*100, cfg.SupportLookback))
	level.Price = price
	level.Distance = math.Abs(req.EntryPrice - price)
	return level
}

// volatilityStop scales the base percentage by realized daily
// volatility so quiet markets get tighter stops and volatile markets
// wider ones.
func volatilityStop(req StopRequest, cfg config.StopLossConfig) StopLossLevel {
	closes := closePrices(req.Candles)
	returns := formulas.CalculateReturns(closes)
	if len(returns) < 2 {
		return fallbackStop(req, cfg, "insufficient price history for volatility stop")
	}

	dailyVol := formulas.StdDev(returns)
	scale := math.Max(volScaleMin, math.Min(volScaleMax, dailyVol*volScaleFactor))
	pct := clampPct(cfg.VolatilityBasePct*scale, cfg)
	return buildStop(req, pct, 0.8,
		fmt.Sprintf("base %.1f%% scaled %.2fx by %.2f%% daily volatility", cfg.VolatilityBasePct*100, scale, dailyVol*100))
}

// percentageStop places the stop a fixed fraction from entry.
func percentageStop(req StopRequest, pct, confidence float64, rationale string) StopLossLevel {
	return buildStop(req, pct, confidence, rationale)
}

// fallbackStop is the default-percentage stop used when a method's data
// requirements are not met.
func fallbackStop(req StopRequest, cfg config.StopLossConfig, reason string) StopLossLevel {
	level := buildStop(req, cfg.DefaultStopPct, 0.4, "default percentage stop")
	level.Warnings = append(level.Warnings, reason)
	return level
}

func buildStop(req StopRequest, pct, confidence float64, rationale string) StopLossLevel {
	distance := req.EntryPrice * pct
	return StopLossLevel{
		Price:      req.EntryPrice - req.Direction.sign()*distance,
		Distance:   distance,
		Percentage: pct,
		Confidence: confidence,
		Rationale:  rationale,
	}
}

func clampPct(pct float64, cfg config.StopLossConfig) float64 {
	return math.Max(cfg.MinStopPct, math.Min(cfg.MaxStopPct, pct))
}

// CalculateTakeProfit computes a target level with the requested method.
// As with stops, thin data degrades to a risk-reward target with a
// warning rather than failing.
func (m *Manager) CalculateTakeProfit(req TakeProfitRequest) (TakeProfitLevel, error) {
	m.mu.RLock()
	stopCfg, tpCfg := m.stop, m.tp
	m.mu.RUnlock()

	if req.EntryPrice <= 0 {
		return TakeProfitLevel{}, fmt.Errorf("entry price must be positive, got %v", req.EntryPrice)
	}

	risk := req.EntryPrice * stopCfg.DefaultStopPct
	if req.StopPrice > 0 {
		risk = math.Abs(req.EntryPrice - req.StopPrice)
	}
	ratio := tpCfg.RiskRewardRatio
	if req.Ratio > 0 {
		ratio = req.Ratio
	}

	var level TakeProfitLevel
	switch req.Method {
	case ProfitRiskReward:
		level = riskRewardTarget(req, risk, ratio)
	case ProfitFibonacci:
		level = fibonacciTarget(req, tpCfg, risk, ratio)
	case ProfitMovingAverage:
		level = movingAverageTarget(req, tpCfg, risk, ratio)
	case ProfitPartial:
		level = partialTarget(req, tpCfg, risk)
	case ProfitVolatilityTarget:
		level = volatilityTarget(req, tpCfg, risk, ratio)
	default:
		return TakeProfitLevel{}, fmt.Errorf("unknown take-profit method %d", int(req.Method))
	}

	level.Symbol = req.Symbol
	level.Method = req.Method
	m.log.Debug().
		Str("symbol", req.Symbol).
		Str("method", req.Method.String()).
		Float64("target_price", level.Price).
		Float64("risk_reward", level.RiskRewardRatio).
		Msg("take profit calculated")
	return level, nil
}

// riskRewardTarget places the target so reward is exactly ratio times
// the risked distance.
func riskRewardTarget(req TakeProfitRequest, risk, ratio float64) TakeProfitLevel {
	distance := risk * ratio
	return buildTarget(req, distance, risk, 0.85,
		fmt.Sprintf("%.1f:1 reward against %.4f risked", ratio, risk))
}

// fibonacciTarget extends 61.8% of the recent swing range past entry.
func fibonacciTarget(req TakeProfitRequest, cfg config.TakeProfitConfig, risk, ratio float64) TakeProfitLevel {
	if len(req.Candles) < cfg.FibonacciLookback {
		return fallbackTarget(req, risk, ratio,
			fmt.Sprintf("need at least %d candles for fibonacci target, got %d", cfg.FibonacciLookback, len(req.Candles)))
	}

	window := req.Candles[len(req.Candles)-cfg.FibonacciLookback:]
	high, low := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	swing := high - low
	if swing <= 0 {
		return fallbackTarget(req, risk, ratio, "flat price range, fibonacci target undefined")
	}

	distance := 0.618 * swing
	return buildTarget(req, distance, risk, 0.7,
		fmt.Sprintf("61.8%% extension of the %d-bar swing range %.4f", cfg.FibonacciLookback, swing))
}

// movingAverageTarget aims for a band above the rolling mean. A band
// that sits on the wrong side of entry degrades to the risk-reward
// target.
func movingAverageTarget(req TakeProfitRequest, cfg config.TakeProfitConfig, risk, ratio float64) TakeProfitLevel {
	closes := closePrices(req.Candles)
	if len(closes) < cfg.MovingAveragePeriod {
		return fallbackTarget(req, risk, ratio,
			fmt.Sprintf("need at least %d candles for moving-average target, got %d", cfg.MovingAveragePeriod, len(req.Candles)))
	}

	ma := formulas.Mean(closes[len(closes)-cfg.MovingAveragePeriod:])
	price := ma * (1 + req.Direction.sign()*cfg.MovingAverageBand)
	distance := req.Direction.sign() * (price - req.EntryPrice)
	if distance <= 0 {
		return fallbackTarget(req, risk, ratio, "moving-average band is not past entry")
	}

	return buildTarget(req, distance, risk, 0.65,
		fmt.Sprintf("%.1f%% band around the %d-bar mean %.4f", cfg.MovingAverageBand*100, cfg.MovingAveragePeriod, ma))
}

// partialTarget lays a ladder of targets at increasing risk-reward
// multiples; the first rung is the primary level.
func partialTarget(req TakeProfitRequest, cfg config.TakeProfitConfig, risk float64) TakeProfitLevel {
	ratios := cfg.PartialProfitRatios
	if len(ratios) == 0 {
		ratios = []float64{1.5, 2.5, 4.0}
	}

	levels := make([]PartialProfitLevel, 0, len(ratios))
	for _, r := range ratios {
		levels = append(levels, PartialProfitLevel{
			Price: req.EntryPrice + req.Direction.sign()*risk*r,
			Ratio: r,
		})
	}

	level := buildTarget(req, risk*ratios[0], risk, 0.8,
		fmt.Sprintf("partial-profit ladder at %v reward multiples", ratios))
	level.PartialLevels = levels
	return level
}

// volatilityTarget places the target a sigma multiple of realized daily
// volatility past entry.
func volatilityTarget(req TakeProfitRequest, cfg config.TakeProfitConfig, risk, ratio float64) TakeProfitLevel {
	closes := closePrices(req.Candles)
	returns := formulas.CalculateReturns(closes)
	if len(returns) < 2 {
		return fallbackTarget(req, risk, ratio, "insufficient price history for volatility target")
	}

	dailyVol := formulas.StdDev(returns)
	if dailyVol == 0 {
		return fallbackTarget(req, risk, ratio, "zero realized volatility, target undefined")
	}

	distance := req.EntryPrice * dailyVol * cfg.VolatilitySigma
	return buildTarget(req, distance, risk, 0.7,
		fmt.Sprintf("%.1f sigma of %.2f%% daily volatility past entry", cfg.VolatilitySigma, dailyVol*100))
}

// fallbackTarget is the risk-reward target used when a method's data
// requirements are not met.
func fallbackTarget(req TakeProfitRequest, risk, ratio float64, reason string) TakeProfitLevel {
	level := riskRewardTarget(req, risk, ratio)
	level.Confidence = 0.4
	level.Rationale = "default risk-reward target"
	level.Warnings = append(level.Warnings, reason)
	return level
}

func buildTarget(req TakeProfitRequest, distance, risk, confidence float64, rationale string) TakeProfitLevel {
	rr := 0.0
	if risk > 0 {
		rr = distance / risk
	}
	return TakeProfitLevel{
		Price:           req.EntryPrice + req.Direction.sign()*distance,
		Distance:        distance,
		Percentage:      distance / req.EntryPrice,
		Confidence:      confidence,
		RiskRewardRatio: rr,
		Rationale:       rationale,
	}
}

// CalculateRiskReward pairs the configured default stop and take-profit
// methods for a position and grades the setup on a 0-10 quality scale.
func (m *Manager) CalculateRiskReward(symbol string, entryPrice float64, direction Direction, candles []types.OHLCV) (RiskRewardRecommendation, error) {
	m.mu.RLock()
	stopCfg, tpCfg := m.stop, m.tp
	m.mu.RUnlock()

	stopMethod, err := ParseStopMethod(stopCfg.DefaultMethod)
	if err != nil {
		return RiskRewardRecommendation{}, err
	}
	tpMethod, err := ParseTakeProfitMethod(tpCfg.DefaultMethod)
	if err != nil {
		return RiskRewardRecommendation{}, err
	}

	stop, err := m.CalculateStopLoss(StopRequest{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Direction:  direction,
		Method:     stopMethod,
		Candles:    candles,
	})
	if err != nil {
		return RiskRewardRecommendation{}, err
	}

	target, err := m.CalculateTakeProfit(TakeProfitRequest{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Direction:  direction,
		Method:     tpMethod,
		Candles:    candles,
		StopPrice:  stop.Price,
	})
	if err != nil {
		return RiskRewardRecommendation{}, err
	}

	ratio := 0.0
	if stop.Distance > 0 {
		ratio = target.Distance / stop.Distance
	}

	rec := RiskRewardRecommendation{
		Symbol:       symbol,
		StopLoss:     stop,
		TakeProfit:   target,
		Ratio:        ratio,
		QualityScore: qualityScore(ratio, stop.Confidence, target.Confidence),
	}
	m.log.Debug().
		Str("symbol", symbol).
		Float64("ratio", ratio).
		Float64("quality", rec.QualityScore).
		Msg("risk-reward recommendation")
	return rec, nil
}

// qualityScore grades a setup from a neutral 5: better reward multiples
// and higher calculation confidence raise it, a sub-1:1 setup is
// penalized. Result is clamped to [0, 10].
func qualityScore(ratio, stopConf, targetConf float64) float64 {
	score := 5.0

	switch {
	case ratio >= 3.0:
		score += 3
	case ratio >= 2.0:
		score += 2
	case ratio >= 1.5:
		score++
	case ratio < 1.0:
		score -= 2
	}

	avgConf := (stopConf + targetConf) / 2
	switch {
	case avgConf >= 0.8:
		score += 2
	case avgConf >= 0.6:
		score++
	case avgConf < 0.4:
		score--
	}

	return math.Max(0, math.Min(10, score))
}

// UpdateTrailingStop proposes a tightened stop for a trailing position.
// The stop only ever moves in the profit direction: a candidate looser
// than the current stop returns ok=false and leaves the stop in place.
func (m *Manager) UpdateTrailingStop(currentPrice, currentStop float64, direction Direction, trailPct float64) (float64, bool) {
	if trailPct <= 0 {
		m.mu.RLock()
		trailPct = m.stop.TrailingPct
		m.mu.RUnlock()
	}
	if currentPrice <= 0 || trailPct <= 0 {
		return currentStop, false
	}

	candidate := currentPrice * (1 - direction.sign()*trailPct)
	if direction == DirectionLong && candidate > currentStop {
		return candidate, true
	}
	if direction == DirectionShort && candidate < currentStop {
		return candidate, true
	}
	return currentStop, false
}

// averageTrueRange is the mean true range over the trailing period.
// Needs period+1 candles for the previous close; returns 0 otherwise.
func averageTrueRange(candles []types.OHLCV, period int) float64 {
	if period < 1 || len(candles) < period+1 {
		return 0
	}

	window := candles[len(candles)-period-1:]
	sum := 0.0
	for i := 1; i < len(window); i++ {
		prevClose := window[i-1].Close
		tr := math.Max(window[i].High-window[i].Low,
			math.Max(math.Abs(window[i].High-prevClose), math.Abs(window[i].Low-prevClose)))
		sum += tr
	}
	return sum / float64(period)
}

func closePrices(candles []types.OHLCV) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
