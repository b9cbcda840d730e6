package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadCandles_ParsesRows tests the default RFC3339 layout
func TestLoadCandles_ParsesRows(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2025-01-01T00:00:00Z,100,105,99,104,1500
2025-01-02T00:00:00Z,104,110,103,108,1800
`)

	candles, err := NewCSVProvider().LoadCandles(path)
	require.NoError(t, err)

	require.Len(t, candles, 2)
	assert.Equal(t, 104.0, candles[0].Close)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), candles[1].Timestamp)
}

// TestLoadCandles_SkipsMalformedRows tests that bad rows are dropped, not fatal
func TestLoadCandles_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2025-01-01T00:00:00Z,100,105,99,104,1500
not-a-date,104,110,103,108,1800
2025-01-03T00:00:00Z,108,not-a-number,107,109,1200
2025-01-04T00:00:00Z,109,112,108,111,1400
`)

	candles, err := NewCSVProvider().LoadCandles(path)
	require.NoError(t, err)

	require.Len(t, candles, 2)
	assert.Equal(t, 111.0, candles[1].Close)
}

// TestLoadCandles_UnixTimestampFallback tests the unix-seconds timestamp column
func TestLoadCandles_UnixTimestampFallback(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1735689600,100,105,99,104,1500
`)

	candles, err := NewCSVProvider().LoadCandles(path)
	require.NoError(t, err)

	require.Len(t, candles, 1)
	assert.Equal(t, 2025, candles[0].Timestamp.Year())
}

// TestLoadCandles_AllRowsBad tests that a fully unparseable file is an error
func TestLoadCandles_AllRowsBad(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
garbage,x,y,z,w,v
`)

	_, err := NewCSVProvider().LoadCandles(path)
	assert.Error(t, err)
}

// TestLoadCandles_MissingFile tests the not-found error path
func TestLoadCandles_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadCandles(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

// TestReturnSeries_BuildsTimestampedReturns tests return-series conversion
func TestReturnSeries_BuildsTimestampedReturns(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2025-01-01T00:00:00Z,100,105,99,100,1500
2025-01-02T00:00:00Z,100,111,100,110,1800
2025-01-03T00:00:00Z,110,112,98,99,1200
`)

	candles, err := NewCSVProvider().LoadCandles(path)
	require.NoError(t, err)

	s := ReturnSeries(candles)
	require.Equal(t, 2, s.Len())

	v, ok := s.At(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.InDelta(t, 0.10, v, 1e-9)
}

// TestCloseReturns_MatchesSimpleReturns tests the plain-slice conversion
func TestCloseReturns_MatchesSimpleReturns(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2025-01-01T00:00:00Z,100,105,99,100,1500
2025-01-02T00:00:00Z,100,111,100,120,1800
`)

	candles, err := NewCSVProvider().LoadCandles(path)
	require.NoError(t, err)

	returns := CloseReturns(candles)
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.20, returns[0], 1e-9)
}
