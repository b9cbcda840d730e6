package config

import "fmt"

// ValidationResult collects configuration problems without interrupting
// normal operation. Errors mark values an engine must not run with,
// warnings mark values that are legal but suspicious.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no hard errors were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var knownSizingMethods = map[string]bool{
	"kelly": true, "risk_parity": true, "volatility": true,
	"fixed_fractional": true, "max_drawdown": true, "equal_weight": true,
}

var knownStopMethods = map[string]bool{
	"atr": true, "percentage": true, "trailing": true,
	"support_resistance": true, "volatility": true, "time_based": true,
}

var knownTakeProfitMethods = map[string]bool{
	"risk_reward_ratio": true, "fibonacci": true, "moving_average": true,
	"partial_profit": true, "volatility_target": true,
}

// ValidateConfiguration checks the derived document for out-of-range
// values and missing method names. It never panics and never fails a read.
func (m *Manager) ValidateConfiguration() ValidationResult {
	m.mu.RLock()
	doc := m.current
	m.mu.RUnlock()

	var res ValidationResult

	validateFraction := func(name string, v float64) {
		if v < 0 || v > 1 {
			res.errorf("%s must be within [0, 1], got %.4f", name, v)
		}
	}

	g := doc.GlobalRisk
	validateFraction("global_risk.max_portfolio_risk", g.MaxPortfolioRisk)
	validateFraction("global_risk.max_position_size", g.MaxPositionSize)
	validateFraction("global_risk.max_sector_concentration", g.MaxSectorConcentration)
	validateFraction("global_risk.max_correlation", g.MaxCorrelation)
	validateFraction("global_risk.max_daily_loss", g.MaxDailyLoss)
	validateFraction("global_risk.min_liquidity_ratio", g.MinLiquidityRatio)
	if g.MaxLeverage < 1 {
		res.warnf("global_risk.max_leverage %.2f is below 1, positions cannot use full capital", g.MaxLeverage)
	}
	if g.TargetRiskReward <= 0 {
		res.errorf("global_risk.target_risk_reward must be positive, got %.2f", g.TargetRiskReward)
	}
	if g.MaxPositionSize > 0.5 {
		res.warnf("global_risk.max_position_size %.2f allows a single position above half the portfolio", g.MaxPositionSize)
	}

	ps := doc.PositionSizing
	if ps.DefaultMethod == "" {
		res.errorf("position_sizing.default_method is not set")
	} else if !knownSizingMethods[ps.DefaultMethod] {
		res.errorf("position_sizing.default_method %q is not a known method", ps.DefaultMethod)
	}
	if ps.MaxKellyFraction <= 0 || ps.MaxKellyFraction > 1 {
		res.errorf("position_sizing.max_kelly_fraction must be within (0, 1], got %.4f", ps.MaxKellyFraction)
	}
	if ps.TargetPositions <= 0 {
		res.errorf("position_sizing.target_positions must be positive, got %d", ps.TargetPositions)
	}
	if ps.TargetVolatility <= 0 {
		res.errorf("position_sizing.target_volatility must be positive, got %.4f", ps.TargetVolatility)
	}
	if ps.AcceptableDrawdown <= 0 || ps.AcceptableDrawdown > 1 {
		res.errorf("position_sizing.acceptable_drawdown must be within (0, 1], got %.4f", ps.AcceptableDrawdown)
	}

	sl := doc.StopLoss
	if sl.DefaultMethod == "" {
		res.errorf("stop_loss.default_method is not set")
	} else if !knownStopMethods[sl.DefaultMethod] {
		res.errorf("stop_loss.default_method %q is not a known method", sl.DefaultMethod)
	}
	if sl.MinStopPct <= 0 || sl.MaxStopPct <= 0 || sl.MinStopPct >= sl.MaxStopPct {
		res.errorf("stop_loss bounds invalid: min %.4f must be positive and below max %.4f", sl.MinStopPct, sl.MaxStopPct)
	}
	if sl.ATRPeriod < 2 {
		res.errorf("stop_loss.atr_period must be at least 2, got %d", sl.ATRPeriod)
	}
	if sl.ATRMultiplier <= 0 {
		res.errorf("stop_loss.atr_multiplier must be positive, got %.2f", sl.ATRMultiplier)
	}

	tp := doc.TakeProfit
	if tp.DefaultMethod == "" {
		res.errorf("take_profit.default_method is not set")
	} else if !knownTakeProfitMethods[tp.DefaultMethod] {
		res.errorf("take_profit.default_method %q is not a known method", tp.DefaultMethod)
	}
	if tp.RiskRewardRatio <= 0 {
		res.errorf("take_profit.risk_reward_ratio must be positive, got %.2f", tp.RiskRewardRatio)
	}
	if len(tp.PartialProfitRatios) == 0 {
		res.warnf("take_profit.partial_profit_ratios is empty, partial profit falls back to the risk-reward ratio")
	}

	for name, mult := range doc.MarketRegimes {
		if mult.RiskMultiplier <= 0 || mult.PositionSizeMultiplier <= 0 || mult.TakeProfitMultiplier <= 0 {
			res.errorf("market_regimes.%s multipliers must all be positive", name)
		}
	}

	mon := doc.Monitoring
	if mon.CheckIntervalMinutes <= 0 {
		res.errorf("monitoring.check_interval_minutes must be positive, got %d", mon.CheckIntervalMinutes)
	}
	if mon.AlertCooldownMinutes <= 0 {
		res.errorf("monitoring.alert_cooldown_minutes must be positive, got %d", mon.AlertCooldownMinutes)
	}
	if mon.MaxVaR95 <= 0 || mon.MaxVaR99 <= 0 {
		res.errorf("monitoring VaR ceilings must be positive, got 95=%.4f 99=%.4f", mon.MaxVaR95, mon.MaxVaR99)
	} else if mon.MaxVaR95 >= mon.MaxVaR99 {
		res.warnf("monitoring.max_var_95 %.4f should be below max_var_99 %.4f", mon.MaxVaR95, mon.MaxVaR99)
	}
	validateFraction("monitoring.max_drawdown", mon.MaxDrawdown)
	validateFraction("monitoring.max_concentration", mon.MaxConcentration)
	validateFraction("monitoring.max_correlation", mon.MaxCorrelation)
	validateFraction("monitoring.min_liquidity_ratio", mon.MinLiquidityRatio)
	if mon.RiskScoreWarning < 1 || mon.RiskScoreWarning > 10 ||
		mon.RiskScoreCritical < 1 || mon.RiskScoreCritical > 10 {
		res.errorf("monitoring risk score thresholds must be within [1, 10]")
	} else if mon.RiskScoreWarning >= mon.RiskScoreCritical {
		res.warnf("monitoring.risk_score_warning %d should be below risk_score_critical %d",
			mon.RiskScoreWarning, mon.RiskScoreCritical)
	}

	for name, s := range doc.Strategies {
		if s.MaxPositionSize != nil {
			validateFraction(fmt.Sprintf("strategies.%s.max_position_size", name), *s.MaxPositionSize)
		}
		if s.MaxPortfolioRisk != nil {
			validateFraction(fmt.Sprintf("strategies.%s.max_portfolio_risk", name), *s.MaxPortfolioRisk)
		}
		if s.SizingMethod != "" && !knownSizingMethods[s.SizingMethod] {
			res.errorf("strategies.%s.sizing_method %q is not a known method", name, s.SizingMethod)
		}
		if s.StopLossMethod != "" && !knownStopMethods[s.StopLossMethod] {
			res.errorf("strategies.%s.stop_loss_method %q is not a known method", name, s.StopLossMethod)
		}
		if s.TakeProfitMethod != "" && !knownTakeProfitMethods[s.TakeProfitMethod] {
			res.errorf("strategies.%s.take_profit_method %q is not a known method", name, s.TakeProfitMethod)
		}
	}

	ec := doc.EmergencyControls
	validateFraction("emergency_controls.daily_loss_limit", ec.DailyLossLimit)
	validateFraction("emergency_controls.correlation_breakdown", ec.CorrelationBreakdown)

	return res
}
