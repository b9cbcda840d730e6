package risk

import (
	"fmt"
	"sort"

	"github.com/quantforge/riskengine/pkg/types"
)

// warningHeadroom flags positions that sit within 90% of the size limit
// without breaching it.
const warningHeadroom = 0.9

// CheckRiskLimits tests each position's fraction of the portfolio against
// the configured maximum position size. A proposed new position is folded
// into the check as if it were already held. The check records violations
// and warnings as strings and never fails.
func (e *Engine) CheckRiskLimits(positions types.Positions, portfolioValue float64, proposed *ProposedPosition) LimitCheckResult {
	e.mu.RLock()
	limits := e.limits
	e.mu.RUnlock()

	result := LimitCheckResult{WithinLimits: true}
	if portfolioValue <= 0 {
		result.WithinLimits = false
		result.Violations = append(result.Violations, "portfolio value must be positive to evaluate limits")
		return result
	}

	book := make(types.Positions, len(positions)+1)
	for symbol, value := range positions {
		book[symbol] = value
	}
	if proposed != nil {
		book[proposed.Symbol] += proposed.Value
	}

	symbols := make([]string, 0, len(book))
	for s := range book {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		fraction := book[symbol] / portfolioValue
		switch {
		case fraction > limits.MaxPositionSize:
			result.WithinLimits = false
			result.Violations = append(result.Violations,
				fmt.Sprintf("position %s is %.1f%% of portfolio, above the %.1f%% limit",
					symbol, fraction*100, limits.MaxPositionSize*100))
			result.Recommendations = append(result.Recommendations,
				fmt.Sprintf("reduce %s by %.2f to return within the position limit",
					symbol, book[symbol]-portfolioValue*limits.MaxPositionSize))
		case fraction > limits.MaxPositionSize*warningHeadroom:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("position %s is %.1f%% of portfolio, near the %.1f%% limit",
					symbol, fraction*100, limits.MaxPositionSize*100))
		}
	}

	exposure := book.TotalValue() / portfolioValue
	if limits.MaxLeverage > 0 && exposure > limits.MaxLeverage {
		result.WithinLimits = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("gross exposure %.2fx exceeds the %.2fx leverage limit", exposure, limits.MaxLeverage))
	}

	return result
}
