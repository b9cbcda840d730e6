package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/riskengine/internal/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "risk_config.yaml")
	m, err := NewManager(path, logger.Nop())
	require.NoError(t, err)
	return m
}

// TestNewManager_SynthesizesDefaults tests that a missing file is created with defaults
func TestNewManager_SynthesizesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_config.yaml")
	m, err := NewManager(path, logger.Nop())
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, 0.10, m.GetGlobalConfig().MaxPositionSize)
	assert.Equal(t, "volatility", m.GetPositionSizing().DefaultMethod)
}

// TestNewManager_LoadsJSONFallback tests that a JSON document is accepted
func TestNewManager_LoadsJSONFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"global_risk": {"max_position_size": 0.2}}`), 0o644))

	m, err := NewManager(path, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0.2, m.GetGlobalConfig().MaxPositionSize)
}

// TestApplyMarketRegime_ScalesLimits tests that bear multipliers shrink the limits
func TestApplyMarketRegime_ScalesLimits(t *testing.T) {
	m := newTestManager(t)
	base := m.GetGlobalConfig()

	require.NoError(t, m.ApplyMarketRegime(RegimeBear))

	got := m.GetGlobalConfig()
	assert.InDelta(t, base.MaxPortfolioRisk*0.7, got.MaxPortfolioRisk, 1e-9)
	assert.InDelta(t, base.MaxPositionSize*0.7, got.MaxPositionSize, 1e-9)
	assert.InDelta(t, base.TargetRiskReward*0.8, got.TargetRiskReward, 1e-9)
}

// TestApplyMarketRegime_IsIdempotent tests that reapplying a regime does not compound
func TestApplyMarketRegime_IsIdempotent(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.ApplyMarketRegime(RegimeHighVolatility))
	once := m.GetGlobalConfig()

	require.NoError(t, m.ApplyMarketRegime(RegimeHighVolatility))
	twice := m.GetGlobalConfig()

	assert.Equal(t, once, twice)
}

// TestApplyMarketRegime_Unknown tests that an unconfigured regime is rejected
func TestApplyMarketRegime_Unknown(t *testing.T) {
	m := newTestManager(t)
	assert.Error(t, m.ApplyMarketRegime(MarketRegime("sideways_crab")))
}

// TestApplyRiskProfile_OverridesGlobals tests the conservative template
func TestApplyRiskProfile_OverridesGlobals(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.ApplyRiskProfile(ProfileConservative))

	got := m.GetGlobalConfig()
	assert.Equal(t, 0.02, got.MaxPortfolioRisk)
	assert.Equal(t, 0.05, got.MaxPositionSize)
	assert.Equal(t, 3.0, got.TargetRiskReward)
}

// TestResetToDefaults_ClearsRegimeAndProfile tests the round trip back to the base document
func TestResetToDefaults_ClearsRegimeAndProfile(t *testing.T) {
	m := newTestManager(t)
	base := m.GetGlobalConfig()

	require.NoError(t, m.ApplyRiskProfile(ProfileAggressive))
	require.NoError(t, m.ApplyMarketRegime(RegimeBull))
	require.NotEqual(t, base, m.GetGlobalConfig())

	require.NoError(t, m.ResetToDefaults())

	assert.Equal(t, base, m.GetGlobalConfig())
	assert.Equal(t, RegimeNeutral, m.CurrentRegime())
	assert.Equal(t, ProfileNone, m.CurrentProfile())
}

// TestGetStrategyConfig_UnknownFallsBackToGlobals tests default resolution
func TestGetStrategyConfig_UnknownFallsBackToGlobals(t *testing.T) {
	m := newTestManager(t)

	view := m.GetStrategyConfig("momentum")

	assert.Equal(t, "momentum", view.Name)
	assert.Equal(t, m.GetGlobalConfig().MaxPositionSize, view.MaxPositionSize)
	assert.Equal(t, "volatility", view.SizingMethod)
	assert.Equal(t, "atr", view.StopLossMethod)
}

// TestUpdateStrategyConfig_KnownAndCustomFields tests the override merge
func TestUpdateStrategyConfig_KnownAndCustomFields(t *testing.T) {
	m := newTestManager(t)

	err := m.UpdateStrategyConfig("momentum", map[string]any{
		"max_position_size": 0.04,
		"sizing_method":     "kelly",
		"lookback_days":     90,
	})
	require.NoError(t, err)

	view := m.GetStrategyConfig("momentum")
	assert.Equal(t, 0.04, view.MaxPositionSize)
	assert.Equal(t, "kelly", view.SizingMethod)
	assert.Equal(t, 90, view.Custom["lookback_days"])
}

// TestUpdateStrategyConfig_RejectsBadType tests type checking of known fields
func TestUpdateStrategyConfig_RejectsBadType(t *testing.T) {
	m := newTestManager(t)
	err := m.UpdateStrategyConfig("momentum", map[string]any{"max_position_size": "ten percent"})
	assert.Error(t, err)
}

// TestUpdateStrategyConfig_SurvivesRegimeApplication tests that strategy overrides rescale
func TestUpdateStrategyConfig_SurvivesRegimeApplication(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.UpdateStrategyConfig("momentum", map[string]any{"max_position_size": 0.10}))

	require.NoError(t, m.ApplyMarketRegime(RegimeBear))

	view := m.GetStrategyConfig("momentum")
	assert.InDelta(t, 0.07, view.MaxPositionSize, 1e-9)
}

// TestValidateConfiguration_DefaultsAreValid tests the synthesized document passes
func TestValidateConfiguration_DefaultsAreValid(t *testing.T) {
	m := newTestManager(t)
	result := m.ValidateConfiguration()
	assert.True(t, result.Valid(), "errors: %v", result.Errors)
}

// TestValidateConfiguration_CatchesBadMethod tests that an unknown method name is an error
func TestValidateConfiguration_CatchesBadMethod(t *testing.T) {
	m := newTestManager(t)
	m.base.PositionSizing.DefaultMethod = "martingale"
	m.recompute()

	result := m.ValidateConfiguration()
	assert.False(t, result.Valid())
}

// TestValidateConfiguration_CatchesInvertedStopBounds tests min >= max stop detection
func TestValidateConfiguration_CatchesInvertedStopBounds(t *testing.T) {
	m := newTestManager(t)
	m.base.StopLoss.MinStopPct = 0.2
	m.base.StopLoss.MaxStopPct = 0.1
	m.recompute()

	result := m.ValidateConfiguration()
	assert.False(t, result.Valid())
}
