package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantforge/riskengine/internal/monitor"
)

// ConsoleReporter renders monitoring output as terminal tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintSummary renders the portfolio summary table.
func (r *ConsoleReporter) PrintSummary(summary monitor.PortfolioSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PORTFOLIO RISK SUMMARY")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Portfolio Value", fmt.Sprintf("$%.2f", summary.PortfolioValue)},
		{"💵 Cash Balance", fmt.Sprintf("$%.2f", summary.CashBalance)},
		{"📊 Positions", summary.PositionCount},
		{"🎯 Risk Score", fmt.Sprintf("%d / 10", summary.RiskScore)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"📉 VaR (95%)", fmt.Sprintf("%.2f%%", summary.VaR95*100)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", summary.MaxDrawdown*100)},
		{"📊 Concentration", fmt.Sprintf("%.2f", summary.ConcentrationRisk)},
	})

	if len(summary.AlertCounts) > 0 {
		t.AppendSeparator()
		for _, sev := range []monitor.Severity{
			monitor.SeverityEmergency,
			monitor.SeverityCritical,
			monitor.SeverityWarning,
			monitor.SeverityInfo,
		} {
			if n := summary.AlertCounts[sev]; n > 0 {
				t.AppendRow(table.Row{"🚨 Alerts (" + string(sev) + ")", n})
			}
		}
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 18, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintAlerts renders the active alert table, newest first.
func (r *ConsoleReporter) PrintAlerts(alerts []monitor.Alert) {
	if len(alerts) == 0 {
		fmt.Println("✅ No active alerts")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ACTIVE ALERTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Type", "Severity", "Message", "Recommendation"})

	for i := len(alerts) - 1; i >= 0; i-- {
		a := alerts[i]
		t.AppendRow(table.Row{
			a.Timestamp.Format("2006-01-02 15:04"),
			string(a.Type),
			severityBadge(a.Severity),
			a.Message,
			a.Recommendation,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
		{Number: 5, WidthMax: 40},
	})

	t.Render()
	fmt.Println()
}

// PrintHeatmap renders the position weight heatmap.
func (r *ConsoleReporter) PrintHeatmap(cells []monitor.HeatmapCell) {
	if len(cells) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("POSITION HEATMAP")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Value", "Weight", "Tier"})

	for _, c := range cells {
		t.AppendRow(table.Row{
			c.Symbol,
			fmt.Sprintf("$%.2f", c.Value),
			fmt.Sprintf("%.1f%%", c.Weight*100),
			tierBadge(c.RiskTier),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

func severityBadge(s monitor.Severity) string {
	switch s {
	case monitor.SeverityEmergency:
		return "🆘 " + string(s)
	case monitor.SeverityCritical:
		return "🔴 " + string(s)
	case monitor.SeverityWarning:
		return "🟡 " + string(s)
	default:
		return "🔵 " + string(s)
	}
}

func tierBadge(tier string) string {
	switch tier {
	case "high":
		return "🔴 high"
	case "medium":
		return "🟡 medium"
	default:
		return "🟢 low"
	}
}
