package types

import (
	"sort"
	"time"
)

// Series is an ordered sequence of (timestamp, value) pairs for a single
// instrument. Values are keyed by timestamp so that multi-series
// operations can intersect on time rather than on array position.
type Series struct {
	values map[int64]float64 // keyed by UnixNano
	order  []time.Time
	sorted bool
}

// NewSeries creates an empty series.
func NewSeries() *Series {
	return &Series{values: make(map[int64]float64)}
}

// SeriesFromValues builds a series from parallel timestamp/value slices.
// Mismatched lengths are truncated to the shorter slice.
func SeriesFromValues(timestamps []time.Time, values []float64) *Series {
	s := NewSeries()
	n := len(timestamps)
	if len(values) < n {
		n = len(values)
	}
	for i := 0; i < n; i++ {
		s.Put(timestamps[i], values[i])
	}
	return s
}

// Put inserts or replaces the value at the given timestamp.
func (s *Series) Put(ts time.Time, value float64) {
	key := ts.UnixNano()
	if _, exists := s.values[key]; !exists {
		s.order = append(s.order, ts)
		s.sorted = false
	}
	s.values[key] = value
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.values)
}

// At returns the value at the given timestamp.
func (s *Series) At(ts time.Time) (float64, bool) {
	v, ok := s.values[ts.UnixNano()]
	return v, ok
}

// Timestamps returns the timestamps in chronological order.
func (s *Series) Timestamps() []time.Time {
	s.ensureSorted()
	out := make([]time.Time, len(s.order))
	copy(out, s.order)
	return out
}

// Values returns the values in chronological order.
func (s *Series) Values() []float64 {
	s.ensureSorted()
	out := make([]float64, 0, len(s.order))
	for _, ts := range s.order {
		out = append(out, s.values[ts.UnixNano()])
	}
	return out
}

func (s *Series) ensureSorted() {
	if s.sorted {
		return
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i].Before(s.order[j]) })
	s.sorted = true
}

// AlignSeries intersects the timestamps of all given series and returns the
// common timestamps in chronological order together with each series'
// values restricted to that intersection. Series missing from the input or
// empty drop the intersection to zero.
func AlignSeries(series map[string]*Series) ([]time.Time, map[string][]float64) {
	aligned := make(map[string][]float64, len(series))
	if len(series) == 0 {
		return nil, aligned
	}

	// Start from the smallest series to keep the candidate set tight.
	var smallest *Series
	for _, s := range series {
		if s == nil {
			return nil, aligned
		}
		if smallest == nil || s.Len() < smallest.Len() {
			smallest = s
		}
	}

	var common []time.Time
	for _, ts := range smallest.Timestamps() {
		inAll := true
		for _, s := range series {
			if _, ok := s.At(ts); !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, ts)
		}
	}

	for name, s := range series {
		values := make([]float64, len(common))
		for i, ts := range common {
			values[i], _ = s.At(ts)
		}
		aligned[name] = values
	}
	return common, aligned
}
