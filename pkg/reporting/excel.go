package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantforge/riskengine/internal/config"
	engerrors "github.com/quantforge/riskengine/internal/errors"
	"github.com/quantforge/riskengine/internal/monitor"
)

// ExcelReporter writes the monitoring report as a styled workbook.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header   int
	currency int
	percent  int
}

// WriteReport writes Snapshots, Alerts and Thresholds sheets to path.
func (r *ExcelReporter) WriteReport(report monitor.RiskReport, thresholds config.MonitoringConfig, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return engerrors.Wrap(err, engerrors.CategoryReport, "excel", "write_report")
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const (
		snapshotsSheet  = "Snapshots"
		alertsSheet     = "Alerts"
		thresholdsSheet = "Thresholds"
	)

	fx.SetSheetName(fx.GetSheetName(0), snapshotsSheet)
	fx.NewSheet(alertsSheet)
	fx.NewSheet(thresholdsSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "excel", "write_report")
	}

	if err := r.writeSnapshotsSheet(fx, snapshotsSheet, report.Snapshots, styles); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "excel", "write_report")
	}
	if err := r.writeAlertsSheet(fx, alertsSheet, report.ActiveAlerts, styles); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "excel", "write_report")
	}
	if err := r.writeThresholdsSheet(fx, thresholdsSheet, thresholds, styles); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "excel", "write_report")
	}

	if err := fx.SaveAs(path); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "excel", "write_report")
	}
	return nil
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7, // currency with $ symbol
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // percentage with two decimals
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	return styles, err
}

func (r *ExcelReporter) writeSnapshotsSheet(fx *excelize.File, sheet string, snapshots []monitor.Snapshot, styles excelStyles) error {
	headers := []string{"Timestamp", "Portfolio Value", "Cash", "Positions", "Daily PnL", "VaR 95%", "VaR 99%", "Volatility", "Drawdown", "Risk Score"}
	if err := writeHeaderRow(fx, sheet, headers, styles.header); err != nil {
		return err
	}

	for i, s := range snapshots {
		row := i + 2
		values := []any{
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.PortfolioValue,
			s.CashBalance,
			len(s.Positions),
			s.DailyPnL,
			s.Metrics.VaR95,
			s.Metrics.VaR99,
			s.Metrics.Volatility,
			s.Metrics.MaxDrawdown,
			s.Metrics.RiskScore,
		}
		if err := writeRow(fx, sheet, row, values); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell(2, row), cell(3, row), styles.currency)
		fx.SetCellStyle(sheet, cell(6, row), cell(9, row), styles.percent)
	}

	return fx.SetColWidth(sheet, "A", "J", 16)
}

func (r *ExcelReporter) writeAlertsSheet(fx *excelize.File, sheet string, alerts []monitor.Alert, styles excelStyles) error {
	headers := []string{"Timestamp", "ID", "Type", "Severity", "Symbol", "Current", "Threshold", "Impact", "Message", "Recommendation"}
	if err := writeHeaderRow(fx, sheet, headers, styles.header); err != nil {
		return err
	}

	for i, a := range alerts {
		row := i + 2
		values := []any{
			a.Timestamp.Format("2006-01-02 15:04:05"),
			a.ID,
			string(a.Type),
			string(a.Severity),
			a.Symbol,
			a.CurrentValue,
			a.ThresholdValue,
			a.PortfolioImpact,
			a.Message,
			a.Recommendation,
		}
		if err := writeRow(fx, sheet, row, values); err != nil {
			return err
		}
	}

	return fx.SetColWidth(sheet, "I", "J", 60)
}

func (r *ExcelReporter) writeThresholdsSheet(fx *excelize.File, sheet string, cfg config.MonitoringConfig, styles excelStyles) error {
	if err := writeHeaderRow(fx, sheet, []string{"Threshold", "Value"}, styles.header); err != nil {
		return err
	}

	rows := []struct {
		name  string
		value any
	}{
		{"Max VaR 95%", cfg.MaxVaR95},
		{"Max VaR 99%", cfg.MaxVaR99},
		{"Max Drawdown", cfg.MaxDrawdown},
		{"Max Concentration", cfg.MaxConcentration},
		{"Max Correlation", cfg.MaxCorrelation},
		{"Min Liquidity Ratio", cfg.MinLiquidityRatio},
		{"Risk Score Warning", cfg.RiskScoreWarning},
		{"Risk Score Critical", cfg.RiskScoreCritical},
		{"Alert Cooldown (min)", cfg.AlertCooldownMinutes},
		{"Check Interval (min)", cfg.CheckIntervalMinutes},
	}
	for i, r := range rows {
		if err := writeRow(fx, sheet, i+2, []any{r.name, r.value}); err != nil {
			return err
		}
	}

	return fx.SetColWidth(sheet, "A", "B", 22)
}

func writeHeaderRow(fx *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		c := cell(i+1, 1)
		if err := fx.SetCellValue(sheet, c, h); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, c, c, style)
	}
	return nil
}

func writeRow(fx *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if err := fx.SetCellValue(sheet, cell(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	if name == "" {
		name = fmt.Sprintf("A%d", row)
	}
	return name
}
