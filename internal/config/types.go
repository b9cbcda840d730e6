package config

import "fmt"

// MarketRegime is a named market-condition bucket whose multipliers
// rescale risk parameters.
type MarketRegime string

const (
	RegimeNeutral        MarketRegime = "neutral"
	RegimeBull           MarketRegime = "bull"
	RegimeBear           MarketRegime = "bear"
	RegimeSideways       MarketRegime = "sideways"
	RegimeHighVolatility MarketRegime = "high_volatility"
)

// ParseMarketRegime converts a string to a known regime.
func ParseMarketRegime(s string) (MarketRegime, error) {
	switch MarketRegime(s) {
	case RegimeNeutral, RegimeBull, RegimeBear, RegimeSideways, RegimeHighVolatility:
		return MarketRegime(s), nil
	}
	return RegimeNeutral, fmt.Errorf("unknown market regime %q", s)
}

// RiskProfile selects a named template of global risk overrides.
type RiskProfile string

const (
	ProfileNone         RiskProfile = ""
	ProfileConservative RiskProfile = "conservative"
	ProfileModerate     RiskProfile = "moderate"
	ProfileAggressive   RiskProfile = "aggressive"
)

// ParseRiskProfile converts a string to a known profile.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch RiskProfile(s) {
	case ProfileConservative, ProfileModerate, ProfileAggressive:
		return RiskProfile(s), nil
	}
	return ProfileNone, fmt.Errorf("unknown risk profile %q", s)
}

// GlobalRiskConfig holds portfolio-wide ceiling values.
type GlobalRiskConfig struct {
	MaxPortfolioRisk       float64 `yaml:"max_portfolio_risk" json:"max_portfolio_risk"`
	MaxPositionSize        float64 `yaml:"max_position_size" json:"max_position_size"`
	MaxSectorConcentration float64 `yaml:"max_sector_concentration" json:"max_sector_concentration"`
	MaxCorrelation         float64 `yaml:"max_correlation" json:"max_correlation"`
	MaxLeverage            float64 `yaml:"max_leverage" json:"max_leverage"`
	MaxDailyLoss           float64 `yaml:"max_daily_loss" json:"max_daily_loss"`
	MinLiquidityRatio      float64 `yaml:"min_liquidity_ratio" json:"min_liquidity_ratio"`
	TargetRiskReward       float64 `yaml:"target_risk_reward" json:"target_risk_reward"`
}

// StrategyRiskConfig holds per-strategy overrides. Unset pointer fields
// fall back to the global configuration.
type StrategyRiskConfig struct {
	MaxPositionSize  *float64       `yaml:"max_position_size,omitempty" json:"max_position_size,omitempty"`
	MaxPortfolioRisk *float64       `yaml:"max_portfolio_risk,omitempty" json:"max_portfolio_risk,omitempty"`
	MaxCorrelation   *float64       `yaml:"max_correlation,omitempty" json:"max_correlation,omitempty"`
	MaxDailyLoss     *float64       `yaml:"max_daily_loss,omitempty" json:"max_daily_loss,omitempty"`
	TargetRiskReward *float64       `yaml:"target_risk_reward,omitempty" json:"target_risk_reward,omitempty"`
	SizingMethod     string         `yaml:"sizing_method,omitempty" json:"sizing_method,omitempty"`
	StopLossMethod   string         `yaml:"stop_loss_method,omitempty" json:"stop_loss_method,omitempty"`
	TakeProfitMethod string         `yaml:"take_profit_method,omitempty" json:"take_profit_method,omitempty"`
	Custom           map[string]any `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// StrategyView is a strategy config with all fallbacks resolved to
// concrete values.
type StrategyView struct {
	Name             string
	MaxPositionSize  float64
	MaxPortfolioRisk float64
	MaxCorrelation   float64
	MaxDailyLoss     float64
	TargetRiskReward float64
	SizingMethod     string
	StopLossMethod   string
	TakeProfitMethod string
	Custom           map[string]any
}

// PositionSizingConfig holds the default sizing method and per-method
// parameters.
type PositionSizingConfig struct {
	DefaultMethod      string  `yaml:"default_method" json:"default_method"`
	MaxKellyFraction   float64 `yaml:"max_kelly_fraction" json:"max_kelly_fraction"`
	BaseFraction       float64 `yaml:"base_fraction" json:"base_fraction"`
	TargetVolatility   float64 `yaml:"target_volatility" json:"target_volatility"`
	FixedFraction      float64 `yaml:"fixed_fraction" json:"fixed_fraction"`
	TargetPositions    int     `yaml:"target_positions" json:"target_positions"`
	AcceptableDrawdown float64 `yaml:"acceptable_drawdown" json:"acceptable_drawdown"`
	RiskFreeRate       float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// StopLossConfig holds the default stop method, the global stop bounds and
// per-method parameters.
type StopLossConfig struct {
	DefaultMethod         string  `yaml:"default_method" json:"default_method"`
	MaxStopPct            float64 `yaml:"max_stop_pct" json:"max_stop_pct"`
	MinStopPct            float64 `yaml:"min_stop_pct" json:"min_stop_pct"`
	DefaultStopPct        float64 `yaml:"default_stop_pct" json:"default_stop_pct"`
	ATRPeriod             int     `yaml:"atr_period" json:"atr_period"`
	ATRMultiplier         float64 `yaml:"atr_multiplier" json:"atr_multiplier"`
	TrailingPct           float64 `yaml:"trailing_pct" json:"trailing_pct"`
	TrailingActivationPct float64 `yaml:"trailing_activation_pct" json:"trailing_activation_pct"`
	SupportLookback       int     `yaml:"support_lookback" json:"support_lookback"`
	SupportBuffer         float64 `yaml:"support_buffer" json:"support_buffer"`
	VolatilityBasePct     float64 `yaml:"volatility_base_pct" json:"volatility_base_pct"`
	TimeStopDays          int     `yaml:"time_stop_days" json:"time_stop_days"`
}

// TakeProfitConfig holds per-method take-profit parameters.
type TakeProfitConfig struct {
	DefaultMethod       string    `yaml:"default_method" json:"default_method"`
	RiskRewardRatio     float64   `yaml:"risk_reward_ratio" json:"risk_reward_ratio"`
	FibonacciLookback   int       `yaml:"fibonacci_lookback" json:"fibonacci_lookback"`
	MovingAveragePeriod int       `yaml:"moving_average_period" json:"moving_average_period"`
	MovingAverageBand   float64   `yaml:"moving_average_band" json:"moving_average_band"`
	PartialProfitRatios []float64 `yaml:"partial_profit_ratios" json:"partial_profit_ratios"`
	VolatilitySigma     float64   `yaml:"volatility_sigma" json:"volatility_sigma"`
}

// RegimeMultipliers rescale the base risk parameters for one market regime.
type RegimeMultipliers struct {
	RiskMultiplier         float64 `yaml:"risk_multiplier" json:"risk_multiplier"`
	PositionSizeMultiplier float64 `yaml:"position_size_multiplier" json:"position_size_multiplier"`
	TakeProfitMultiplier   float64 `yaml:"take_profit_multiplier" json:"take_profit_multiplier"`
}

// RiskProfileConfig overrides global fields when a profile is applied.
// Nil fields leave the base value untouched.
type RiskProfileConfig struct {
	MaxPortfolioRisk *float64 `yaml:"max_portfolio_risk,omitempty" json:"max_portfolio_risk,omitempty"`
	MaxPositionSize  *float64 `yaml:"max_position_size,omitempty" json:"max_position_size,omitempty"`
	MaxDailyLoss     *float64 `yaml:"max_daily_loss,omitempty" json:"max_daily_loss,omitempty"`
	TargetRiskReward *float64 `yaml:"target_risk_reward,omitempty" json:"target_risk_reward,omitempty"`
}

// MonitoringConfig holds the monitoring cadence, cooldown and alert
// thresholds.
type MonitoringConfig struct {
	CheckIntervalMinutes int     `yaml:"check_interval_minutes" json:"check_interval_minutes"`
	AlertCooldownMinutes int     `yaml:"alert_cooldown_minutes" json:"alert_cooldown_minutes"`
	MaxVaR95             float64 `yaml:"max_var_95" json:"max_var_95"`
	MaxVaR99             float64 `yaml:"max_var_99" json:"max_var_99"`
	MaxDrawdown          float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxConcentration     float64 `yaml:"max_concentration" json:"max_concentration"`
	MaxCorrelation       float64 `yaml:"max_correlation" json:"max_correlation"`
	MinLiquidityRatio    float64 `yaml:"min_liquidity_ratio" json:"min_liquidity_ratio"`
	RiskScoreWarning     int     `yaml:"risk_score_warning" json:"risk_score_warning"`
	RiskScoreCritical    int     `yaml:"risk_score_critical" json:"risk_score_critical"`
}

// EmergencyConfig holds the emergency-control thresholds.
type EmergencyConfig struct {
	DailyLossLimit       float64 `yaml:"daily_loss_limit" json:"daily_loss_limit"`
	FlashCrashProtection bool    `yaml:"flash_crash_protection" json:"flash_crash_protection"`
	CorrelationBreakdown float64 `yaml:"correlation_breakdown" json:"correlation_breakdown"`
}

// Document is the full configuration document as stored on disk.
type Document struct {
	GlobalRisk        GlobalRiskConfig              `yaml:"global_risk" json:"global_risk"`
	Strategies        map[string]StrategyRiskConfig `yaml:"strategies" json:"strategies"`
	PositionSizing    PositionSizingConfig          `yaml:"position_sizing" json:"position_sizing"`
	StopLoss          StopLossConfig                `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit        TakeProfitConfig              `yaml:"take_profit" json:"take_profit"`
	MarketRegimes     map[string]RegimeMultipliers  `yaml:"market_regimes" json:"market_regimes"`
	RiskProfiles      map[string]RiskProfileConfig  `yaml:"risk_profiles" json:"risk_profiles"`
	Monitoring        MonitoringConfig              `yaml:"monitoring" json:"monitoring"`
	EmergencyControls EmergencyConfig               `yaml:"emergency_controls" json:"emergency_controls"`
}

// clone returns a deep copy of the document so regime and profile
// application never mutate the loaded base.
func (d Document) clone() Document {
	out := d
	out.Strategies = make(map[string]StrategyRiskConfig, len(d.Strategies))
	for name, s := range d.Strategies {
		out.Strategies[name] = s.clone()
	}
	out.MarketRegimes = make(map[string]RegimeMultipliers, len(d.MarketRegimes))
	for name, r := range d.MarketRegimes {
		out.MarketRegimes[name] = r
	}
	out.RiskProfiles = make(map[string]RiskProfileConfig, len(d.RiskProfiles))
	for name, p := range d.RiskProfiles {
		out.RiskProfiles[name] = p.clone()
	}
	out.TakeProfit.PartialProfitRatios = append([]float64(nil), d.TakeProfit.PartialProfitRatios...)
	return out
}

func (s StrategyRiskConfig) clone() StrategyRiskConfig {
	out := s
	out.MaxPositionSize = clonePtr(s.MaxPositionSize)
	out.MaxPortfolioRisk = clonePtr(s.MaxPortfolioRisk)
	out.MaxCorrelation = clonePtr(s.MaxCorrelation)
	out.MaxDailyLoss = clonePtr(s.MaxDailyLoss)
	out.TargetRiskReward = clonePtr(s.TargetRiskReward)
	if s.Custom != nil {
		out.Custom = make(map[string]any, len(s.Custom))
		for k, v := range s.Custom {
			out.Custom[k] = v
		}
	}
	return out
}

func (p RiskProfileConfig) clone() RiskProfileConfig {
	out := p
	out.MaxPortfolioRisk = clonePtr(p.MaxPortfolioRisk)
	out.MaxPositionSize = clonePtr(p.MaxPositionSize)
	out.MaxDailyLoss = clonePtr(p.MaxDailyLoss)
	out.TargetRiskReward = clonePtr(p.TargetRiskReward)
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func ptr(v float64) *float64 { return &v }
