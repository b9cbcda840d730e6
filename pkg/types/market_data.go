package types

import "time"

// OHLCV is a single price bar.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Positions maps symbol to the currency value currently held in it.
type Positions map[string]float64

// Prices maps symbol to its latest price.
type Prices map[string]float64

// TotalValue returns the summed currency value of all positions.
func (p Positions) TotalValue() float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	return total
}

// Weights returns each position's fraction of the given portfolio value.
// A non-positive portfolio value yields an empty map.
func (p Positions) Weights(portfolioValue float64) map[string]float64 {
	weights := make(map[string]float64, len(p))
	if portfolioValue <= 0 {
		return weights
	}
	for symbol, value := range p {
		weights[symbol] = value / portfolioValue
	}
	return weights
}
