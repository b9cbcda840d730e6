package config

// DefaultDocument returns the configuration synthesized when no file
// exists on disk.
func DefaultDocument() Document {
	return Document{
		GlobalRisk: GlobalRiskConfig{
			MaxPortfolioRisk:       0.05,
			MaxPositionSize:        0.10,
			MaxSectorConcentration: 0.30,
			MaxCorrelation:         0.70,
			MaxLeverage:            1.0,
			MaxDailyLoss:           0.03,
			MinLiquidityRatio:      0.05,
			TargetRiskReward:       2.0,
		},
		Strategies: map[string]StrategyRiskConfig{},
		PositionSizing: PositionSizingConfig{
			DefaultMethod:      "volatility",
			MaxKellyFraction:   0.25,
			BaseFraction:       0.05,
			TargetVolatility:   0.15,
			FixedFraction:      0.05,
			TargetPositions:    10,
			AcceptableDrawdown: 0.10,
			RiskFreeRate:       0.02,
		},
		StopLoss: StopLossConfig{
			DefaultMethod:         "atr",
			MaxStopPct:            0.15,
			MinStopPct:            0.01,
			DefaultStopPct:        0.05,
			ATRPeriod:             14,
			ATRMultiplier:         2.0,
			TrailingPct:           0.05,
			TrailingActivationPct: 0.02,
			SupportLookback:       20,
			SupportBuffer:         0.005,
			VolatilityBasePct:     0.03,
			TimeStopDays:          10,
		},
		TakeProfit: TakeProfitConfig{
			DefaultMethod:       "risk_reward_ratio",
			RiskRewardRatio:     2.0,
			FibonacciLookback:   20,
			MovingAveragePeriod: 20,
			MovingAverageBand:   0.02,
			PartialProfitRatios: []float64{1.5, 2.5, 4.0},
			VolatilitySigma:     2.0,
		},
		MarketRegimes: map[string]RegimeMultipliers{
			string(RegimeNeutral):        {RiskMultiplier: 1.0, PositionSizeMultiplier: 1.0, TakeProfitMultiplier: 1.0},
			string(RegimeBull):           {RiskMultiplier: 1.2, PositionSizeMultiplier: 1.2, TakeProfitMultiplier: 1.2},
			string(RegimeBear):           {RiskMultiplier: 0.7, PositionSizeMultiplier: 0.7, TakeProfitMultiplier: 0.8},
			string(RegimeSideways):       {RiskMultiplier: 0.9, PositionSizeMultiplier: 0.9, TakeProfitMultiplier: 0.8},
			string(RegimeHighVolatility): {RiskMultiplier: 0.6, PositionSizeMultiplier: 0.5, TakeProfitMultiplier: 1.5},
		},
		RiskProfiles: map[string]RiskProfileConfig{
			string(ProfileConservative): {
				MaxPortfolioRisk: ptr(0.02),
				MaxPositionSize:  ptr(0.05),
				MaxDailyLoss:     ptr(0.01),
				TargetRiskReward: ptr(3.0),
			},
			string(ProfileModerate): {
				MaxPortfolioRisk: ptr(0.05),
				MaxPositionSize:  ptr(0.10),
				MaxDailyLoss:     ptr(0.03),
				TargetRiskReward: ptr(2.0),
			},
			string(ProfileAggressive): {
				MaxPortfolioRisk: ptr(0.10),
				MaxPositionSize:  ptr(0.20),
				MaxDailyLoss:     ptr(0.05),
				TargetRiskReward: ptr(1.5),
			},
		},
		Monitoring: MonitoringConfig{
			CheckIntervalMinutes: 15,
			AlertCooldownMinutes: 30,
			MaxVaR95:             0.03,
			MaxVaR99:             0.05,
			MaxDrawdown:          0.15,
			MaxConcentration:     0.25,
			MaxCorrelation:       0.70,
			MinLiquidityRatio:    0.05,
			RiskScoreWarning:     6,
			RiskScoreCritical:    8,
		},
		EmergencyControls: EmergencyConfig{
			DailyLossLimit:       0.05,
			FlashCrashProtection: true,
			CorrelationBreakdown: 0.90,
		},
	}
}
