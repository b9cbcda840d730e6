package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quantforge/riskengine/internal/config"
	"github.com/quantforge/riskengine/internal/logger"
	"github.com/quantforge/riskengine/internal/monitor"
	"github.com/quantforge/riskengine/internal/risk"
	"github.com/quantforge/riskengine/internal/stoploss"
	"github.com/quantforge/riskengine/pkg/data"
	"github.com/quantforge/riskengine/pkg/reporting"
	"github.com/quantforge/riskengine/pkg/types"
)

// portfolioFile is the on-disk portfolio the monitor watches.
type portfolioFile struct {
	Cash      float64            `json:"cash"`
	Positions map[string]float64 `json:"positions"`
}

func main() {
	var (
		configPath    = flag.String("config", "risk_config.yaml", "Risk configuration file (YAML or JSON)")
		portfolioPath = flag.String("portfolio", "", "Portfolio file: {\"cash\": ..., \"positions\": {symbol: value}}")
		dataDir       = flag.String("data", "data", "Directory of <symbol>.csv candle files")
		regime        = flag.String("regime", "", "Market regime to apply (bull, bear, sideways, high_volatility)")
		profile       = flag.String("profile", "", "Risk profile to apply (conservative, moderate, aggressive)")
		reportPath    = flag.String("report", "", "Write a JSON risk report to this path and exit")
		excelPath     = flag.String("excel", "", "Write an Excel risk report to this path and exit")
		metricsAddr   = flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
		watch         = flag.Bool("watch", false, "Keep running and re-evaluate on the configured interval")
		pretty        = flag.Bool("pretty", true, "Human-readable log output")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		envFile       = flag.String("env", ".env", "Environment file path")
	)
	flag.Parse()

	if *portfolioPath == "" {
		log.Fatal("Please specify a portfolio file with -portfolio")
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
	}

	zlog := logger.New(logger.Config{Level: *logLevel, Pretty: *pretty})

	mgr, err := config.NewManager(*configPath, zlog)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	if result := mgr.ValidateConfiguration(); !result.Valid() {
		for _, e := range result.Errors {
			zlog.Error().Msg(e)
		}
		zlog.Fatal().Int("errors", len(result.Errors)).Msg("configuration is invalid")
	} else {
		for _, w := range result.Warnings {
			zlog.Warn().Msg(w)
		}
	}

	if *profile != "" {
		p, err := config.ParseRiskProfile(*profile)
		if err != nil {
			zlog.Fatal().Err(err).Msg("bad -profile")
		}
		if err := mgr.ApplyRiskProfile(p); err != nil {
			zlog.Fatal().Err(err).Msg("failed to apply risk profile")
		}
	}
	if *regime != "" {
		r, err := config.ParseMarketRegime(*regime)
		if err != nil {
			zlog.Fatal().Err(err).Msg("bad -regime")
		}
		if err := mgr.ApplyMarketRegime(r); err != nil {
			zlog.Fatal().Err(err).Msg("failed to apply market regime")
		}
	}

	engine := buildEngine(mgr, zlog)
	stops := stoploss.NewManager(mgr.GetStopLoss(), mgr.GetTakeProfit(), zlog)
	mon := monitor.NewMonitor(mgr.GetMonitoring(), engine, zlog)
	mon.SetAlertCallback(func(a monitor.Alert) {
		fmt.Printf("🚨 [%s] %s: %s\n", strings.ToUpper(string(a.Severity)), a.Type, a.Message)
		if a.Recommendation != "" {
			fmt.Printf("   👉 %s\n", a.Recommendation)
		}
	})

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			zlog.Info().Str("addr", *metricsAddr).Msg("serving metrics")
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				zlog.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	console := reporting.NewConsoleReporter()

	evaluate := func() {
		positions, cash, err := loadPortfolio(*portfolioPath)
		if err != nil {
			zlog.Error().Err(err).Msg("failed to load portfolio")
			return
		}
		history, candles := loadHistory(*dataDir, positions, zlog)

		snap, alerts := mon.UpdatePortfolioState(positions, cash, history)
		zlog.Info().
			Float64("portfolio_value", snap.PortfolioValue).
			Int("risk_score", snap.Metrics.RiskScore).
			Int("alerts", len(alerts)).
			Msg("portfolio evaluated")

		printRecommendations(mgr, engine, stops, candles, snap.PortfolioValue, zlog)

		console.PrintSummary(mon.GetPortfolioSummary())
		console.PrintHeatmap(mon.GetRiskHeatmapData())
		console.PrintAlerts(mon.GetActiveAlerts())
	}

	evaluate()

	if *reportPath != "" {
		if err := reporting.NewJSONReporter().WriteReport(mon.BuildRiskReport(), *reportPath); err != nil {
			zlog.Fatal().Err(err).Msg("failed to write JSON report")
		}
		zlog.Info().Str("path", *reportPath).Msg("JSON report written")
	}
	if *excelPath != "" {
		if err := reporting.NewExcelReporter().WriteReport(mon.BuildRiskReport(), mgr.GetMonitoring(), *excelPath); err != nil {
			zlog.Fatal().Err(err).Msg("failed to write Excel report")
		}
		zlog.Info().Str("path", *excelPath).Msg("Excel report written")
	}

	if !*watch {
		return
	}

	interval := time.Duration(mgr.GetMonitoring().CheckIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	zlog.Info().Dur("interval", interval).Msg("monitoring loop started")
	for {
		select {
		case <-ticker.C:
			evaluate()
		case sig := <-stop:
			zlog.Info().Str("signal", sig.String()).Msg("shutting down")
			return
		}
	}
}

// buildEngine wires the current configuration into a risk engine.
func buildEngine(mgr *config.Manager, zlog zerolog.Logger) *risk.Engine {
	g := mgr.GetGlobalConfig()
	sizing := mgr.GetPositionSizing()

	limits := risk.RiskLimits{
		MaxPortfolioRisk:       g.MaxPortfolioRisk,
		MaxPositionSize:        g.MaxPositionSize,
		MaxSectorConcentration: g.MaxSectorConcentration,
		MaxCorrelation:         g.MaxCorrelation,
		MaxLeverage:            g.MaxLeverage,
		MaxDailyLoss:           g.MaxDailyLoss,
		MinLiquidityRatio:      g.MinLiquidityRatio,
	}
	params := risk.SizingParams{
		MaxKellyFraction:   sizing.MaxKellyFraction,
		BaseFraction:       sizing.BaseFraction,
		TargetVolatility:   sizing.TargetVolatility,
		FixedFraction:      sizing.FixedFraction,
		TargetPositions:    sizing.TargetPositions,
		AcceptableDrawdown: sizing.AcceptableDrawdown,
		RiskFreeRate:       sizing.RiskFreeRate,
	}
	return risk.NewEngine(limits, params, zlog)
}

func loadPortfolio(path string) (types.Positions, float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	var pf portfolioFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return types.Positions(pf.Positions), pf.Cash, nil
}

// loadHistory reads <symbol>.csv for each held position. Missing files
// are logged and skipped; the engine degrades to neutral metrics when
// history is incomplete.
func loadHistory(dir string, positions types.Positions, zlog zerolog.Logger) (map[string]*types.Series, map[string][]types.OHLCV) {
	provider := data.NewCSVProvider()
	history := make(map[string]*types.Series, len(positions))
	candles := make(map[string][]types.OHLCV, len(positions))
	for symbol := range positions {
		path := filepath.Join(dir, symbol+".csv")
		bars, err := provider.LoadCandles(path)
		if err != nil {
			zlog.Warn().Err(err).Str("symbol", symbol).Msg("no candle history")
			continue
		}
		history[symbol] = data.ReturnSeries(bars)
		candles[symbol] = bars
	}
	return history, candles
}

// printRecommendations sizes each held symbol with the configured default
// method and pairs it with a stop/take-profit setup.
func printRecommendations(mgr *config.Manager, engine *risk.Engine, stops *stoploss.Manager, candles map[string][]types.OHLCV, portfolioValue float64, zlog zerolog.Logger) {
	method, err := risk.ParseSizingMethod(mgr.GetPositionSizing().DefaultMethod)
	if err != nil {
		zlog.Error().Err(err).Msg("bad default sizing method")
		return
	}

	symbols := make([]string, 0, len(candles))
	for s := range candles {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		bars := candles[symbol]
		if len(bars) == 0 {
			continue
		}
		price := bars[len(bars)-1].Close

		rec, err := engine.CalculatePositionSize(risk.SizingRequest{
			Symbol:            symbol,
			CurrentPrice:      price,
			PortfolioValue:    portfolioValue,
			Method:            method,
			HistoricalReturns: data.CloseReturns(bars),
		})
		if err != nil {
			zlog.Error().Err(err).Str("symbol", symbol).Msg("sizing failed")
			continue
		}

		rr, err := stops.CalculateRiskReward(symbol, price, stoploss.DirectionLong, bars)
		if err != nil {
			zlog.Error().Err(err).Str("symbol", symbol).Msg("stop/take-profit failed")
			continue
		}

		fmt.Printf("📐 %s: size %.4f units (%.1f%% of portfolio, conf %.0f%%) | stop %.2f, target %.2f, RR %.2f, quality %.1f/10\n",
			symbol, rec.RecommendedSize, rec.RiskContribution*100, rec.Confidence*100,
			rr.StopLoss.Price, rr.TakeProfit.Price, rr.Ratio, rr.QualityScore)
		for _, w := range append(rec.Warnings, rr.StopLoss.Warnings...) {
			fmt.Printf("   ⚠️  %s\n", w)
		}
	}
	fmt.Println()
}
