package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	portfolioValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "riskengine_portfolio_value",
		Help: "Current total portfolio value.",
	})

	cashBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "riskengine_cash_balance",
		Help: "Current cash balance.",
	})

	riskScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "riskengine_risk_score",
		Help: "Composite portfolio risk score (1-10).",
	})

	valueAtRisk = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "riskengine_value_at_risk",
		Help: "Portfolio value at risk as a fraction, by confidence level.",
	}, []string{"confidence"})

	maxDrawdown = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "riskengine_max_drawdown",
		Help: "Maximum drawdown of the portfolio return history.",
	})

	concentration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "riskengine_concentration_risk",
		Help: "Normalized concentration of position weights (0-1).",
	})

	alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "riskengine_alerts_total",
		Help: "Total alerts raised, by type and severity.",
	}, []string{"type", "severity"})

	alertsSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "riskengine_alerts_suppressed_total",
		Help: "Alerts suppressed by the cooldown window.",
	})

	snapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "riskengine_snapshots_total",
		Help: "Portfolio snapshots recorded.",
	})
)

func init() {
	prometheus.MustRegister(
		portfolioValue,
		cashBalance,
		riskScore,
		valueAtRisk,
		maxDrawdown,
		concentration,
		alertsTotal,
		alertsSuppressed,
		snapshotsTotal,
	)
}

// RecordSnapshot publishes the headline numbers of one portfolio snapshot.
func RecordSnapshot(value, cash float64) {
	portfolioValue.Set(value)
	cashBalance.Set(cash)
	snapshotsTotal.Inc()
}

// RecordRiskMetrics publishes the risk metrics of one evaluation.
func RecordRiskMetrics(score int, var95, var99, drawdown, concentrationRisk float64) {
	riskScore.Set(float64(score))
	valueAtRisk.WithLabelValues("95").Set(var95)
	valueAtRisk.WithLabelValues("99").Set(var99)
	maxDrawdown.Set(drawdown)
	concentration.Set(concentrationRisk)
}

// RecordAlert counts one raised alert.
func RecordAlert(alertType, severity string) {
	alertsTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordSuppressedAlert counts one alert swallowed by the cooldown window.
func RecordSuppressedAlert() {
	alertsSuppressed.Inc()
}
