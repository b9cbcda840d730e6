package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"

	engerrors "github.com/quantforge/riskengine/internal/errors"
	"github.com/quantforge/riskengine/internal/monitor"
)

// JSONReporter serializes monitoring reports as indented JSON.
type JSONReporter struct{}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

// Format returns the report as indented JSON bytes.
func (r *JSONReporter) Format(report monitor.RiskReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, engerrors.Wrap(err, engerrors.CategoryReport, "json", "format_report")
	}
	return data, nil
}

// WriteReport writes the report to path, creating parent directories.
func (r *JSONReporter) WriteReport(report monitor.RiskReport, path string) error {
	data, err := r.Format(report)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return engerrors.Wrap(err, engerrors.CategoryReport, "json", "write_report")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryReport, "json", "write_report")
	}
	return nil
}
