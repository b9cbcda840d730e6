package monitor

import (
	"time"

	"github.com/quantforge/riskengine/internal/config"
	"github.com/quantforge/riskengine/internal/risk"
	"github.com/quantforge/riskengine/pkg/types"
)

// AlertType identifies which limit an alert fired on.
type AlertType string

const (
	AlertVaRBreach         AlertType = "VAR_BREACH"
	AlertDrawdownLimit     AlertType = "DRAWDOWN_LIMIT"
	AlertConcentrationRisk AlertType = "CONCENTRATION_RISK"
	AlertCorrelationSpike  AlertType = "CORRELATION_SPIKE"
	AlertLiquidityRisk     AlertType = "LIQUIDITY_RISK"
	AlertRiskScore         AlertType = "RISK_SCORE_THRESHOLD"
)

// Severity grades how urgent an alert is.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityCritical  Severity = "critical"
	SeverityEmergency Severity = "emergency"
)

// Alert is one raised limit breach. PortfolioImpact is the signed
// distance of the current value past the threshold.
type Alert struct {
	ID              string    `json:"id"`
	Type            AlertType `json:"type"`
	Severity        Severity  `json:"severity"`
	Symbol          string    `json:"symbol,omitempty"`
	Message         string    `json:"message"`
	Recommendation  string    `json:"recommendation"`
	CurrentValue    float64   `json:"current_value"`
	ThresholdValue  float64   `json:"threshold_value"`
	PortfolioImpact float64   `json:"portfolio_impact"`
	Timestamp       time.Time `json:"timestamp"`
	Acknowledged    bool      `json:"acknowledged"`
}

// Snapshot is one observed portfolio state plus its computed risk metrics.
type Snapshot struct {
	Timestamp      time.Time        `json:"timestamp"`
	PortfolioValue float64          `json:"portfolio_value"`
	CashBalance    float64          `json:"cash_balance"`
	Positions      types.Positions  `json:"positions"`
	Metrics        risk.RiskMetrics `json:"metrics"`
	DailyPnL       float64          `json:"daily_pnl"`
	DailyPnLPct    float64          `json:"daily_pnl_pct"`
}

// PortfolioSummary condenses the latest snapshot and recent alert
// activity for dashboards.
type PortfolioSummary struct {
	Timestamp         time.Time        `json:"timestamp"`
	PortfolioValue    float64          `json:"portfolio_value"`
	CashBalance       float64          `json:"cash_balance"`
	PositionCount     int              `json:"position_count"`
	RiskScore         int              `json:"risk_score"`
	VaR95             float64          `json:"var_95"`
	MaxDrawdown       float64          `json:"max_drawdown"`
	ConcentrationRisk float64          `json:"concentration_risk"`
	AlertCounts       map[Severity]int `json:"alert_counts"`
}

// HeatmapCell is one symbol's weight and risk tier for heatmap rendering.
type HeatmapCell struct {
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	RiskTier string  `json:"risk_tier"`
}

// RiskReport is the exported monitoring report document.
type RiskReport struct {
	GeneratedAt  time.Time               `json:"generated_at"`
	Summary      PortfolioSummary        `json:"summary"`
	Thresholds   config.MonitoringConfig `json:"thresholds"`
	ActiveAlerts []Alert                 `json:"active_alerts"`
	Heatmap      []HeatmapCell           `json:"heatmap"`
	Snapshots    []Snapshot              `json:"snapshots"`
}
