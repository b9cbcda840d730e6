package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	engerrors "github.com/quantforge/riskengine/internal/errors"
	"github.com/quantforge/riskengine/pkg/formulas"
	"github.com/quantforge/riskengine/pkg/types"
)

// CSVColumnMapping describes where each OHLCV field lives in a CSV row.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
	HasHeader    bool
}

// DefaultCSVFormat is timestamp,open,high,low,close,volume with an
// RFC3339 timestamp and a header row.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   time.RFC3339,
	HasHeader:    true,
}

// CSVProvider loads candle history from CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a provider using the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a provider with a custom column layout.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// LoadCandles reads a CSV file into candles, skipping malformed rows.
// A file where every data row is malformed is an error.
func (p *CSVProvider) LoadCandles(path string) ([]types.OHLCV, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, engerrors.Wrap(err, engerrors.CategoryData, "csv", "load_candles")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if p.format.HasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, engerrors.Wrap(err, engerrors.CategoryData, "csv", "load_candles")
		}
	}

	var (
		candles []types.OHLCV
		rows    int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, engerrors.Wrap(err, engerrors.CategoryData, "csv", "load_candles")
		}
		rows++

		candle, ok := p.parseRow(record)
		if !ok {
			continue
		}
		candles = append(candles, candle)
	}

	if rows > 0 && len(candles) == 0 {
		return nil, engerrors.New(engerrors.CategoryData, "csv", "load_candles",
			fmt.Sprintf("no parseable rows in %s", path))
	}
	return candles, nil
}

func (p *CSVProvider) parseRow(record []string) (types.OHLCV, bool) {
	f := p.format
	if len(record) < f.MinColumns {
		return types.OHLCV{}, false
	}

	ts, err := time.Parse(f.DateFormat, record[f.TimestampCol])
	if err != nil {
		// Fall back to a unix-seconds timestamp column.
		secs, serr := strconv.ParseInt(record[f.TimestampCol], 10, 64)
		if serr != nil {
			return types.OHLCV{}, false
		}
		ts = time.Unix(secs, 0).UTC()
	}

	fields := [5]float64{}
	for i, col := range [5]int{f.OpenCol, f.HighCol, f.LowCol, f.CloseCol, f.VolumeCol} {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return types.OHLCV{}, false
		}
		fields[i] = v
	}

	return types.OHLCV{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, true
}

// ReturnSeries converts candle closes into a timestamped daily-return
// series for portfolio-level statistics.
func ReturnSeries(candles []types.OHLCV) *types.Series {
	s := types.NewSeries()
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		s.Put(candles[i].Timestamp, (candles[i].Close-prev)/prev)
	}
	return s
}

// CloseReturns converts candle closes into a plain return slice for
// sizing models that do not need timestamps.
func CloseReturns(candles []types.OHLCV) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return formulas.CalculateReturns(closes)
}
