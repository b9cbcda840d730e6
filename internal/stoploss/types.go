package stoploss

import "fmt"

// Direction is the side of the position being protected.
type Direction int

const (
	DirectionLong Direction = iota
	DirectionShort
)

// String returns the direction's configuration name.
func (d Direction) String() string {
	if d == DirectionShort {
		return "short"
	}
	return "long"
}

// ParseDirection converts a configuration name to a direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "long":
		return DirectionLong, nil
	case "short":
		return DirectionShort, nil
	}
	return DirectionLong, fmt.Errorf("unknown direction %q", s)
}

// sign is +1 for long and -1 for short, the direction profit moves in.
func (d Direction) sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// StopMethod selects one of the stop-loss models.
type StopMethod int

const (
	StopATR StopMethod = iota
	StopPercentage
	StopTrailing
	StopSupportResistance
	StopVolatility
	StopTimeBased
)

var stopMethodNames = map[StopMethod]string{
	StopATR:               "atr",
	StopPercentage:        "percentage",
	StopTrailing:          "trailing",
	StopSupportResistance: "support_resistance",
	StopVolatility:        "volatility",
	StopTimeBased:         "time_based",
}

// String returns the method's configuration name.
func (m StopMethod) String() string {
	if name, ok := stopMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("stop_method(%d)", int(m))
}

// ParseStopMethod converts a configuration name to a method.
func ParseStopMethod(s string) (StopMethod, error) {
	for m, name := range stopMethodNames {
		if name == s {
			return m, nil
		}
	}
	return StopPercentage, fmt.Errorf("unknown stop-loss method %q", s)
}

// TakeProfitMethod selects one of the take-profit models.
type TakeProfitMethod int

const (
	ProfitRiskReward TakeProfitMethod = iota
	ProfitFibonacci
	ProfitMovingAverage
	ProfitPartial
	ProfitVolatilityTarget
)

var takeProfitMethodNames = map[TakeProfitMethod]string{
	ProfitRiskReward:       "risk_reward_ratio",
	ProfitFibonacci:        "fibonacci",
	ProfitMovingAverage:    "moving_average",
	ProfitPartial:          "partial_profit",
	ProfitVolatilityTarget: "volatility_target",
}

// String returns the method's configuration name.
func (m TakeProfitMethod) String() string {
	if name, ok := takeProfitMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("take_profit_method(%d)", int(m))
}

// ParseTakeProfitMethod converts a configuration name to a method.
func ParseTakeProfitMethod(s string) (TakeProfitMethod, error) {
	for m, name := range takeProfitMethodNames {
		if name == s {
			return m, nil
		}
	}
	return ProfitRiskReward, fmt.Errorf("unknown take-profit method %q", s)
}

// StopLossLevel is the result of one stop-loss calculation.
type StopLossLevel struct {
	Symbol          string
	Method          StopMethod
	Price           float64
	Distance        float64 // absolute price distance from entry
	Percentage      float64 // distance as a fraction of entry
	Confidence      float64 // 0..1
	Rationale       string
	Dynamic         bool    // trailing stops adjust as price moves
	ActivationPrice float64 // trailing: price at which trailing starts
	Warnings        []string
}

// PartialProfitLevel is one rung of a partial take-profit ladder.
type PartialProfitLevel struct {
	Price float64
	Ratio float64 // risk-reward multiple at this rung
}

// TakeProfitLevel is the result of one take-profit calculation.
type TakeProfitLevel struct {
	Symbol          string
	Method          TakeProfitMethod
	Price           float64
	Distance        float64
	Percentage      float64
	Confidence      float64
	RiskRewardRatio float64
	Rationale       string
	PartialLevels   []PartialProfitLevel
	Warnings        []string
}

// RiskRewardRecommendation pairs a stop with a target and scores the
// resulting position setup.
type RiskRewardRecommendation struct {
	Symbol       string
	StopLoss     StopLossLevel
	TakeProfit   TakeProfitLevel
	Ratio        float64
	QualityScore float64 // 0..10
}
