package risk

import "fmt"

// SizingMethod selects one of the position-sizing models.
type SizingMethod int

const (
	SizingKelly SizingMethod = iota
	SizingRiskParity
	SizingVolatility
	SizingFixedFractional
	SizingMaxDrawdown
	SizingEqualWeight
)

var sizingMethodNames = map[SizingMethod]string{
	SizingKelly:           "kelly",
	SizingRiskParity:      "risk_parity",
	SizingVolatility:      "volatility",
	SizingFixedFractional: "fixed_fractional",
	SizingMaxDrawdown:     "max_drawdown",
	SizingEqualWeight:     "equal_weight",
}

// String returns the method's configuration name.
func (m SizingMethod) String() string {
	if name, ok := sizingMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("sizing_method(%d)", int(m))
}

// ParseSizingMethod converts a configuration name to a method.
func ParseSizingMethod(s string) (SizingMethod, error) {
	for m, name := range sizingMethodNames {
		if name == s {
			return m, nil
		}
	}
	return SizingFixedFractional, fmt.Errorf("unknown sizing method %q", s)
}

// RiskLimits are the ceiling values one engine instance enforces.
type RiskLimits struct {
	MaxPortfolioRisk       float64
	MaxPositionSize        float64
	MaxSectorConcentration float64
	MaxCorrelation         float64
	MaxLeverage            float64
	MaxDailyLoss           float64
	MinLiquidityRatio      float64
}

// SizingParams are the per-method tuning knobs, typically sourced from the
// position_sizing configuration section.
type SizingParams struct {
	MaxKellyFraction   float64
	BaseFraction       float64
	TargetVolatility   float64
	FixedFraction      float64
	TargetPositions    int
	AcceptableDrawdown float64
	RiskFreeRate       float64
}

// SizingRequest carries the inputs for one position-sizing call.
type SizingRequest struct {
	Symbol            string
	CurrentPrice      float64
	PortfolioValue    float64
	Method            SizingMethod
	HistoricalReturns []float64
}

// PositionSizeRecommendation is the result of one sizing call.
type PositionSizeRecommendation struct {
	Symbol           string
	RecommendedSize  float64 // shares/units
	MinSize          float64
	MaxSize          float64
	Method           SizingMethod
	Confidence       float64 // 0..1
	RiskContribution float64 // fraction of portfolio value
	Rationale        string
	Warnings         []string
}

// RiskMetrics summarizes portfolio-level risk for one evaluation.
type RiskMetrics struct {
	VaR95               float64
	VaR99               float64
	ExpectedShortfall95 float64
	ExpectedShortfall99 float64
	MaxDrawdown         float64
	Volatility          float64 // annualized
	SharpeRatio         float64
	Beta                float64
	ConcentrationRisk   float64 // 0..1, normalized Herfindahl
	CorrelationRisk     float64 // 0..1, mean absolute pairwise correlation
	RiskScore           int     // 1..10
}

// ProposedPosition is a hypothetical position for limit checking.
type ProposedPosition struct {
	Symbol string
	Value  float64
}

// LimitCheckResult reports limit compliance for a set of positions.
type LimitCheckResult struct {
	WithinLimits    bool
	Violations      []string
	Warnings        []string
	Recommendations []string
}
