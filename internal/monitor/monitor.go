package monitor

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/quantforge/riskengine/internal/config"
	engerrors "github.com/quantforge/riskengine/internal/errors"
	"github.com/quantforge/riskengine/internal/monitoring"
	"github.com/quantforge/riskengine/internal/risk"
	"github.com/quantforge/riskengine/pkg/types"
)

const (
	// maxSnapshots bounds the retained snapshot history.
	maxSnapshots = 1000
	// maxAlerts bounds the retained alert history.
	maxAlerts = 1000
	// drawdownWindow is how many trailing snapshots the observed-drawdown
	// check looks back over.
	drawdownWindow = 100
	// summaryAlertWindow is how many recent alerts the summary counts.
	summaryAlertWindow = 50
	// reportSnapshotCount is how many recent snapshots an exported report carries.
	reportSnapshotCount = 10

	// Escalation multiples: a breach this far past the threshold is
	// upgraded one severity.
	varEscalation      = 1.5
	drawdownEscalation = 1.3

	// Heatmap weight tiers.
	heatmapHighWeight   = 0.15
	heatmapMediumWeight = 0.05
)

// AlertCallback receives every alert the monitor raises.
type AlertCallback func(Alert)

// Monitor tracks portfolio snapshots, evaluates alert thresholds and
// de-duplicates alerts through a per-type-and-symbol cooldown window.
type Monitor struct {
	mu        sync.RWMutex
	cfg       config.MonitoringConfig
	engine    *risk.Engine
	log       zerolog.Logger
	snapshots []Snapshot
	alerts    []Alert
	lastAlert map[string]time.Time
	callback  AlertCallback

	nowFn   func() time.Time
	entropy io.Reader
}

// NewMonitor creates a portfolio monitor backed by the given risk engine.
func NewMonitor(cfg config.MonitoringConfig, engine *risk.Engine, log zerolog.Logger) *Monitor {
	return &Monitor{
		cfg:       cfg,
		engine:    engine,
		log:       log,
		lastAlert: make(map[string]time.Time),
		nowFn:     time.Now,
		entropy:   rand.Reader,
	}
}

// Reconfigure replaces the monitoring thresholds.
func (m *Monitor) Reconfigure(cfg config.MonitoringConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

// SetAlertCallback registers a callback invoked for every raised alert.
// The callback runs synchronously inside the snapshot update.
func (m *Monitor) SetAlertCallback(cb AlertCallback) {
	m.mu.Lock()
	m.callback = cb
	m.mu.Unlock()
}

// SetClock overrides the monitor's time source. Used by tests to drive
// cooldown windows deterministically.
func (m *Monitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.nowFn = now
	m.mu.Unlock()
}

// UpdatePortfolioState records a snapshot of the portfolio, computes its
// risk metrics and runs every alert check against it. The raised (non
// cooldown-suppressed) alerts are returned.
func (m *Monitor) UpdatePortfolioState(positions types.Positions, cashBalance float64, history map[string]*types.Series) (Snapshot, []Alert) {
	portfolioValue := positions.TotalValue() + cashBalance
	metrics := m.engine.CalculatePortfolioRisk(positions, history, portfolioValue)

	m.mu.Lock()
	now := m.nowFn()

	snap := Snapshot{
		Timestamp:      now,
		PortfolioValue: portfolioValue,
		CashBalance:    cashBalance,
		Positions:      clonePositions(positions),
		Metrics:        metrics,
	}
	if n := len(m.snapshots); n > 0 && m.snapshots[n-1].PortfolioValue > 0 {
		prev := m.snapshots[n-1].PortfolioValue
		snap.DailyPnL = portfolioValue - prev
		snap.DailyPnLPct = snap.DailyPnL / prev
	}

	m.snapshots = append(m.snapshots, snap)
	if len(m.snapshots) > maxSnapshots {
		m.snapshots = m.snapshots[len(m.snapshots)-maxSnapshots:]
	}

	raised := m.checkThresholdsLocked(snap, now)
	cb := m.callback
	m.mu.Unlock()

	monitoring.RecordSnapshot(portfolioValue, cashBalance)
	monitoring.RecordRiskMetrics(metrics.RiskScore, metrics.VaR95, metrics.VaR99, metrics.MaxDrawdown, metrics.ConcentrationRisk)

	for _, a := range raised {
		monitoring.RecordAlert(string(a.Type), string(a.Severity))
		m.log.Warn().
			Str("alert_id", a.ID).
			Str("type", string(a.Type)).
			Str("severity", string(a.Severity)).
			Float64("current", a.CurrentValue).
			Float64("threshold", a.ThresholdValue).
			Msg(a.Message)
		if cb != nil {
			cb(a)
		}
	}
	return snap, raised
}

// checkThresholdsLocked runs the six alert checks. Caller holds m.mu.
func (m *Monitor) checkThresholdsLocked(snap Snapshot, now time.Time) []Alert {
	var raised []Alert

	add := func(t AlertType, sev Severity, symbol, msg, recommendation string, current, threshold float64) {
		key := string(t) + "|" + symbol
		cooldown := time.Duration(m.cfg.AlertCooldownMinutes) * time.Minute
		if last, ok := m.lastAlert[key]; ok && now.Sub(last) < cooldown {
			monitoring.RecordSuppressedAlert()
			return
		}
		m.lastAlert[key] = now

		a := Alert{
			ID:              ulid.MustNew(ulid.Timestamp(now), m.entropy).String(),
			Type:            t,
			Severity:        sev,
			Symbol:          symbol,
			Message:         msg,
			Recommendation:  recommendation,
			CurrentValue:    current,
			ThresholdValue:  threshold,
			PortfolioImpact: current - threshold,
			Timestamp:       now,
		}
		m.alerts = append(m.alerts, a)
		if len(m.alerts) > maxAlerts {
			m.alerts = m.alerts[len(m.alerts)-maxAlerts:]
		}
		raised = append(raised, a)
	}

	metrics := snap.Metrics

	// VaR breaches. The 99% breach starts one severity higher.
	if m.cfg.MaxVaR95 > 0 && metrics.VaR95 > m.cfg.MaxVaR95 {
		sev := SeverityWarning
		if metrics.VaR95 > m.cfg.MaxVaR95*varEscalation {
			sev = SeverityCritical
		}
		add(AlertVaRBreach, sev, "",
			fmt.Sprintf("95%% VaR %.2f%% exceeds the %.2f%% limit", metrics.VaR95*100, m.cfg.MaxVaR95*100),
			"reduce position sizes or hedge downside exposure",
			metrics.VaR95, m.cfg.MaxVaR95)
	}
	if m.cfg.MaxVaR99 > 0 && metrics.VaR99 > m.cfg.MaxVaR99 {
		sev := SeverityCritical
		if metrics.VaR99 > m.cfg.MaxVaR99*varEscalation {
			sev = SeverityEmergency
		}
		add(AlertVaRBreach, sev, "tail",
			fmt.Sprintf("99%% VaR %.2f%% exceeds the %.2f%% limit", metrics.VaR99*100, m.cfg.MaxVaR99*100),
			"cut tail exposure: reduce leverage and trim the riskiest positions",
			metrics.VaR99, m.cfg.MaxVaR99)
	}

	// Observed drawdown over the trailing snapshot window.
	if dd := m.observedDrawdownLocked(); m.cfg.MaxDrawdown > 0 && dd > m.cfg.MaxDrawdown {
		sev := SeverityCritical
		if dd > m.cfg.MaxDrawdown*drawdownEscalation {
			sev = SeverityEmergency
		}
		add(AlertDrawdownLimit, sev, "",
			fmt.Sprintf("portfolio drawdown %.2f%% exceeds the %.2f%% limit", dd*100, m.cfg.MaxDrawdown*100),
			"halt new entries and review open positions",
			dd, m.cfg.MaxDrawdown)
	}

	// Concentration: the largest single-position weight.
	if symbol, weight := largestWeight(snap.Positions, snap.PortfolioValue); m.cfg.MaxConcentration > 0 && weight > m.cfg.MaxConcentration {
		add(AlertConcentrationRisk, SeverityWarning, symbol,
			fmt.Sprintf("%s is %.1f%% of the portfolio, above the %.1f%% limit", symbol, weight*100, m.cfg.MaxConcentration*100),
			fmt.Sprintf("trim %s and redistribute into smaller positions", symbol),
			weight, m.cfg.MaxConcentration)
	}

	if m.cfg.MaxCorrelation > 0 && metrics.CorrelationRisk > m.cfg.MaxCorrelation {
		add(AlertCorrelationSpike, SeverityWarning, "",
			fmt.Sprintf("mean pairwise correlation %.2f exceeds the %.2f limit", metrics.CorrelationRisk, m.cfg.MaxCorrelation),
			"diversify into less correlated assets",
			metrics.CorrelationRisk, m.cfg.MaxCorrelation)
	}

	// Liquidity: cash as a fraction of portfolio value.
	if snap.PortfolioValue > 0 && m.cfg.MinLiquidityRatio > 0 {
		ratio := snap.CashBalance / snap.PortfolioValue
		if ratio < m.cfg.MinLiquidityRatio {
			sev := SeverityWarning
			if snap.CashBalance <= 0 {
				sev = SeverityCritical
			}
			add(AlertLiquidityRisk, sev, "",
				fmt.Sprintf("liquidity ratio %.1f%% is below the %.1f%% minimum", ratio*100, m.cfg.MinLiquidityRatio*100),
				"raise cash by trimming positions",
				ratio, m.cfg.MinLiquidityRatio)
		}
	}

	if m.cfg.RiskScoreCritical > 0 && metrics.RiskScore >= m.cfg.RiskScoreCritical {
		add(AlertRiskScore, SeverityCritical, "",
			fmt.Sprintf("risk score %d reached the critical threshold %d", metrics.RiskScore, m.cfg.RiskScoreCritical),
			"de-risk the portfolio until the score recovers",
			float64(metrics.RiskScore), float64(m.cfg.RiskScoreCritical))
	} else if m.cfg.RiskScoreWarning > 0 && metrics.RiskScore >= m.cfg.RiskScoreWarning {
		add(AlertRiskScore, SeverityWarning, "",
			fmt.Sprintf("risk score %d reached the warning threshold %d", metrics.RiskScore, m.cfg.RiskScoreWarning),
			"review position sizing and overall exposure",
			float64(metrics.RiskScore), float64(m.cfg.RiskScoreWarning))
	}

	return raised
}

// observedDrawdownLocked is the decline from the peak portfolio value of
// the trailing snapshot window to the latest value. Caller holds m.mu.
func (m *Monitor) observedDrawdownLocked() float64 {
	n := len(m.snapshots)
	if n < 2 {
		return 0
	}
	window := m.snapshots
	if n > drawdownWindow {
		window = m.snapshots[n-drawdownWindow:]
	}

	peak := 0.0
	for _, s := range window {
		if s.PortfolioValue > peak {
			peak = s.PortfolioValue
		}
	}
	if peak <= 0 {
		return 0
	}
	current := window[len(window)-1].PortfolioValue
	return (peak - current) / peak
}

func largestWeight(positions types.Positions, portfolioValue float64) (string, float64) {
	if portfolioValue <= 0 {
		return "", 0
	}
	symbol, max := "", 0.0
	for s, v := range positions {
		w := v / portfolioValue
		if w > max || (w == max && s < symbol) {
			symbol, max = s, w
		}
	}
	return symbol, max
}

// GetActiveAlerts returns copies of every unacknowledged alert, newest last.
func (m *Monitor) GetActiveAlerts() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if !a.Acknowledged {
			active = append(active, a)
		}
	}
	return active
}

// AcknowledgeAlert marks an alert as handled.
func (m *Monitor) AcknowledgeAlert(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Acknowledged = true
			return nil
		}
	}
	return fmt.Errorf("no alert with id %s", id)
}

// Snapshots returns copies of the retained snapshots, oldest first.
func (m *Monitor) Snapshots() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

// GetPortfolioSummary condenses the latest snapshot and the severity mix
// of the most recent alerts.
func (m *Monitor) GetPortfolioSummary() PortfolioSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := PortfolioSummary{AlertCounts: make(map[Severity]int)}
	if n := len(m.snapshots); n > 0 {
		last := m.snapshots[n-1]
		summary.Timestamp = last.Timestamp
		summary.PortfolioValue = last.PortfolioValue
		summary.CashBalance = last.CashBalance
		summary.PositionCount = len(last.Positions)
		summary.RiskScore = last.Metrics.RiskScore
		summary.VaR95 = last.Metrics.VaR95
		summary.MaxDrawdown = last.Metrics.MaxDrawdown
		summary.ConcentrationRisk = last.Metrics.ConcentrationRisk
	}

	recent := m.alerts
	if len(recent) > summaryAlertWindow {
		recent = recent[len(recent)-summaryAlertWindow:]
	}
	for _, a := range recent {
		summary.AlertCounts[a.Severity]++
	}
	return summary
}

// GetRiskHeatmapData tiers the latest snapshot's positions by weight.
func (m *Monitor) GetRiskHeatmapData() []HeatmapCell {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.snapshots)
	if n == 0 {
		return nil
	}
	last := m.snapshots[n-1]
	if last.PortfolioValue <= 0 {
		return nil
	}

	cells := make([]HeatmapCell, 0, len(last.Positions))
	for symbol, value := range last.Positions {
		weight := value / last.PortfolioValue
		tier := "low"
		switch {
		case weight > heatmapHighWeight:
			tier = "high"
		case weight > heatmapMediumWeight:
			tier = "medium"
		}
		cells = append(cells, HeatmapCell{Symbol: symbol, Value: value, Weight: weight, RiskTier: tier})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Weight != cells[j].Weight {
			return cells[i].Weight > cells[j].Weight
		}
		return cells[i].Symbol < cells[j].Symbol
	})
	return cells
}

// BuildRiskReport assembles the exportable monitoring report.
func (m *Monitor) BuildRiskReport() RiskReport {
	report := RiskReport{
		Summary:      m.GetPortfolioSummary(),
		ActiveAlerts: m.GetActiveAlerts(),
		Heatmap:      m.GetRiskHeatmapData(),
	}

	m.mu.RLock()
	report.GeneratedAt = m.nowFn()
	report.Thresholds = m.cfg
	snaps := m.snapshots
	if len(snaps) > reportSnapshotCount {
		snaps = snaps[len(snaps)-reportSnapshotCount:]
	}
	report.Snapshots = make([]Snapshot, len(snaps))
	copy(report.Snapshots, snaps)
	m.mu.RUnlock()

	return report
}

// ExportRiskReport writes the monitoring report as indented JSON.
func (m *Monitor) ExportRiskReport(path string) error {
	report := m.BuildRiskReport()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "monitor", "export_report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "monitor", "export_report")
	}
	m.log.Info().Str("path", path).Msg("risk report exported")
	return nil
}

func clonePositions(p types.Positions) types.Positions {
	out := make(types.Positions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
