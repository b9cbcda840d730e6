package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	enginerr "github.com/quantforge/riskengine/internal/errors"
)

// Manager owns the risk configuration: it loads the document from disk
// (synthesizing defaults when missing), applies market-regime multipliers
// and risk-profile overrides on top of the loaded base, and serves
// consistent read copies to the engines.
//
// Regime and profile application is idempotent: the derived configuration
// is always recomputed from the pristine base document, so applying the
// same regime twice does not compound the multipliers.
type Manager struct {
	mu   sync.RWMutex
	path string
	log  zerolog.Logger

	base    Document // as loaded from disk
	current Document // base with regime/profile applied
	regime  MarketRegime
	profile RiskProfile
}

// NewManager loads the configuration at path, writing a default document
// first when the file does not exist.
func NewManager(path string, log zerolog.Logger) (*Manager, error) {
	m := &Manager{
		path:   path,
		log:    log,
		regime: RegimeNeutral,
	}
	if err := m.loadFromDisk(); err != nil {
		return nil, err
	}
	return m, nil
}

// loadFromDisk reads the document (YAML first, JSON fallback) into the
// base and recomputes the derived view. Missing file synthesizes and
// persists defaults.
func (m *Manager) loadFromDisk() error {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.log.Info().Str("path", m.path).Msg("config file missing, writing defaults")
		m.base = DefaultDocument()
		m.recompute()
		return m.save(m.base)
	}
	if err != nil {
		return enginerr.Wrap(err, enginerr.CategoryConfiguration, "config", "load")
	}

	doc := DefaultDocument()
	if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
		doc = DefaultDocument()
		if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
			return enginerr.Wrap(
				fmt.Errorf("tried YAML (%v) and JSON (%v)", yamlErr, jsonErr),
				enginerr.CategoryConfiguration, "config", "parse")
		}
	}
	if doc.Strategies == nil {
		doc.Strategies = map[string]StrategyRiskConfig{}
	}
	m.base = doc
	m.recompute()
	return nil
}

// save writes the document to the manager's path as YAML.
func (m *Manager) save(doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return enginerr.Wrap(err, enginerr.CategoryConfiguration, "config", "marshal")
	}
	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return enginerr.Wrap(err, enginerr.CategoryConfiguration, "config", "save")
		}
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return enginerr.Wrap(err, enginerr.CategoryConfiguration, "config", "save")
	}
	return nil
}

// recompute rebuilds the derived document from the base plus the tracked
// profile and regime. Profile overrides apply before regime multipliers,
// matching the order a caller would layer them.
func (m *Manager) recompute() {
	doc := m.base.clone()

	if m.profile != ProfileNone {
		if tpl, ok := doc.RiskProfiles[string(m.profile)]; ok {
			applyProfile(&doc.GlobalRisk, tpl)
		}
	}

	if m.regime != RegimeNeutral {
		if mult, ok := doc.MarketRegimes[string(m.regime)]; ok {
			applyRegime(&doc, mult)
		}
	}

	m.current = doc
}

func applyProfile(g *GlobalRiskConfig, tpl RiskProfileConfig) {
	if tpl.MaxPortfolioRisk != nil {
		g.MaxPortfolioRisk = *tpl.MaxPortfolioRisk
	}
	if tpl.MaxPositionSize != nil {
		g.MaxPositionSize = *tpl.MaxPositionSize
	}
	if tpl.MaxDailyLoss != nil {
		g.MaxDailyLoss = *tpl.MaxDailyLoss
	}
	if tpl.TargetRiskReward != nil {
		g.TargetRiskReward = *tpl.TargetRiskReward
	}
}

func applyRegime(doc *Document, mult RegimeMultipliers) {
	doc.GlobalRisk.MaxPortfolioRisk *= mult.RiskMultiplier
	doc.GlobalRisk.MaxDailyLoss *= mult.RiskMultiplier
	doc.GlobalRisk.MaxPositionSize *= mult.PositionSizeMultiplier
	doc.GlobalRisk.TargetRiskReward *= mult.TakeProfitMultiplier

	for name, s := range doc.Strategies {
		if s.MaxPortfolioRisk != nil {
			*s.MaxPortfolioRisk *= mult.RiskMultiplier
		}
		if s.MaxDailyLoss != nil {
			*s.MaxDailyLoss *= mult.RiskMultiplier
		}
		if s.MaxPositionSize != nil {
			*s.MaxPositionSize *= mult.PositionSizeMultiplier
		}
		if s.TargetRiskReward != nil {
			*s.TargetRiskReward *= mult.TakeProfitMultiplier
		}
		doc.Strategies[name] = s
	}
}

// ApplyMarketRegime rescales the in-memory configuration by the named
// regime's multipliers. Recomputed from the base document on every call.
func (m *Manager) ApplyMarketRegime(regime MarketRegime) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.base.MarketRegimes[string(regime)]; !ok {
		return enginerr.NewValidationError("config", "apply_market_regime",
			fmt.Sprintf("regime %q not configured", regime))
	}
	m.regime = regime
	m.recompute()
	m.log.Info().Str("regime", string(regime)).Msg("market regime applied")
	return nil
}

// ApplyRiskProfile overwrites global fields named by the profile template.
func (m *Manager) ApplyRiskProfile(profile RiskProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.base.RiskProfiles[string(profile)]; !ok {
		return enginerr.NewValidationError("config", "apply_risk_profile",
			fmt.Sprintf("profile %q not configured", profile))
	}
	m.profile = profile
	m.recompute()
	m.log.Info().Str("profile", string(profile)).Msg("risk profile applied")
	return nil
}

// ResetToDefaults reloads the document from disk and clears the tracked
// regime and profile.
func (m *Manager) ResetToDefaults() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.regime = RegimeNeutral
	m.profile = ProfileNone
	return m.loadFromDisk()
}

// CurrentRegime returns the regime applied to the current view.
func (m *Manager) CurrentRegime() MarketRegime {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regime
}

// CurrentProfile returns the profile applied to the current view.
func (m *Manager) CurrentProfile() RiskProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// GetGlobalConfig returns a copy of the derived global risk limits.
func (m *Manager) GetGlobalConfig() GlobalRiskConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.GlobalRisk
}

// GetPositionSizing returns a copy of the sizing parameters.
func (m *Manager) GetPositionSizing() PositionSizingConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.PositionSizing
}

// GetStopLoss returns a copy of the stop-loss parameters.
func (m *Manager) GetStopLoss() StopLossConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.StopLoss
}

// GetTakeProfit returns a copy of the take-profit parameters.
func (m *Manager) GetTakeProfit() TakeProfitConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.current.TakeProfit
	out.PartialProfitRatios = append([]float64(nil), out.PartialProfitRatios...)
	return out
}

// GetMonitoring returns a copy of the monitoring thresholds.
func (m *Manager) GetMonitoring() MonitoringConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Monitoring
}

// GetEmergencyControls returns a copy of the emergency thresholds.
func (m *Manager) GetEmergencyControls() EmergencyConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.EmergencyControls
}

// GetStrategyConfig resolves a strategy's configuration against the
// global defaults. An unknown name falls back entirely to the defaults.
func (m *Manager) GetStrategyConfig(name string) StrategyView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g := m.current.GlobalRisk
	view := StrategyView{
		Name:             name,
		MaxPositionSize:  g.MaxPositionSize,
		MaxPortfolioRisk: g.MaxPortfolioRisk,
		MaxCorrelation:   g.MaxCorrelation,
		MaxDailyLoss:     g.MaxDailyLoss,
		TargetRiskReward: g.TargetRiskReward,
		SizingMethod:     m.current.PositionSizing.DefaultMethod,
		StopLossMethod:   m.current.StopLoss.DefaultMethod,
		TakeProfitMethod: m.current.TakeProfit.DefaultMethod,
	}

	s, ok := m.current.Strategies[name]
	if !ok {
		m.log.Debug().Str("strategy", name).Msg("strategy not configured, using defaults")
		return view
	}

	if s.MaxPositionSize != nil {
		view.MaxPositionSize = *s.MaxPositionSize
	}
	if s.MaxPortfolioRisk != nil {
		view.MaxPortfolioRisk = *s.MaxPortfolioRisk
	}
	if s.MaxCorrelation != nil {
		view.MaxCorrelation = *s.MaxCorrelation
	}
	if s.MaxDailyLoss != nil {
		view.MaxDailyLoss = *s.MaxDailyLoss
	}
	if s.TargetRiskReward != nil {
		view.TargetRiskReward = *s.TargetRiskReward
	}
	if s.SizingMethod != "" {
		view.SizingMethod = s.SizingMethod
	}
	if s.StopLossMethod != "" {
		view.StopLossMethod = s.StopLossMethod
	}
	if s.TakeProfitMethod != "" {
		view.TakeProfitMethod = s.TakeProfitMethod
	}
	if len(s.Custom) > 0 {
		view.Custom = make(map[string]any, len(s.Custom))
		for k, v := range s.Custom {
			view.Custom[k] = v
		}
	}
	return view
}

// UpdateStrategyConfig creates the strategy entry on demand and merges the
// given overrides. Known fields update typed members; anything else lands
// in the strategy's custom parameter map. Updates apply to the base
// document so a later regime application still rescales them.
func (m *Manager) UpdateStrategyConfig(name string, overrides map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.base.Strategies[name]
	if !ok {
		s = StrategyRiskConfig{}
	}

	for key, raw := range overrides {
		switch key {
		case "max_position_size", "max_portfolio_risk", "max_correlation",
			"max_daily_loss", "target_risk_reward":
			v, ok := toFloat(raw)
			if !ok {
				return enginerr.NewValidationError("config", "update_strategy_config",
					fmt.Sprintf("field %q expects a number, got %T", key, raw))
			}
			switch key {
			case "max_position_size":
				s.MaxPositionSize = ptr(v)
			case "max_portfolio_risk":
				s.MaxPortfolioRisk = ptr(v)
			case "max_correlation":
				s.MaxCorrelation = ptr(v)
			case "max_daily_loss":
				s.MaxDailyLoss = ptr(v)
			case "target_risk_reward":
				s.TargetRiskReward = ptr(v)
			}
		case "sizing_method", "stop_loss_method", "take_profit_method":
			v, ok := raw.(string)
			if !ok {
				return enginerr.NewValidationError("config", "update_strategy_config",
					fmt.Sprintf("field %q expects a string, got %T", key, raw))
			}
			switch key {
			case "sizing_method":
				s.SizingMethod = v
			case "stop_loss_method":
				s.StopLossMethod = v
			case "take_profit_method":
				s.TakeProfitMethod = v
			}
		default:
			if s.Custom == nil {
				s.Custom = make(map[string]any)
			}
			s.Custom[key] = raw
		}
	}

	m.base.Strategies[name] = s
	m.recompute()
	m.log.Info().Str("strategy", name).Int("fields", len(overrides)).Msg("strategy config updated")
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
