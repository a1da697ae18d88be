// Command optimize runs a one-shot maximum-Sharpe portfolio
// optimization from the command line: sync price history for the given
// tickers, build the model and print the resulting allocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/1ucian0/client-superstaq/internal/clients/yahoo"
	"github.com/1ucian0/client-superstaq/internal/config"
	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
	"github.com/1ucian0/client-superstaq/internal/modules/optimization"
	"github.com/1ucian0/client-superstaq/pkg/logger"
)

func main() {
	var (
		symbolsFlag  = flag.String("symbols", "", "comma-separated ticker symbols (required, at least two)")
		lookback     = flag.Int("lookback", 252, "trading days of history to use")
		bits         = flag.Int("bits", 3, "bits per asset in the weight encoding")
		reads        = flag.Int("reads", 100, "number of annealing reads")
		riskAversion = flag.Float64("risk-aversion", 0.5, "covariance penalty multiplier")
		seed         = flag.Int64("seed", 0, "random seed (0 = random)")
		skipSync     = flag.Bool("skip-sync", false, "use local history without fetching fresh prices")
		logLevel     = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	log := logger.New(logger.Config{Level: *logLevel, Pretty: true})

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) < 2 {
		fmt.Fprintln(os.Stderr, "at least two symbols are required, e.g. -symbols AAPL,MSFT,GOOG")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	historyDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/history.db",
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	if err := historyDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	priceRepo := marketdata.NewRepository(historyDB.Conn(), log)

	if !*skipSync {
		service := marketdata.NewService(priceRepo, yahoo.NewClient(log), log)
		fmt.Printf("Syncing price history for %s...\n", strings.Join(symbols, ", "))
		for _, result := range service.SyncSymbols(symbols, "2y") {
			if result.Error != "" {
				fmt.Fprintf(os.Stderr, "  %s: sync failed: %s\n", result.Symbol, result.Error)
			}
		}
	}

	service := optimization.NewSharpeService(
		optimization.NewReturnsCalculator(priceRepo, log),
		optimization.NewRiskModelBuilder(priceRepo, log),
		nil, // no run persistence for one-shot CLI use
		cfg.RiskFreeRate,
		log,
	)

	result, err := service.Optimize(context.Background(), optimization.Request{
		Symbols:      symbols,
		LookbackDays: *lookback,
		BitsPerAsset: *bits,
		RiskAversion: *riskAversion,
		NumReads:     *reads,
		Seed:         *seed,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Optimization failed")
	}

	fmt.Println()
	fmt.Println("Optimal portfolio:")
	for _, a := range result.Allocations {
		fmt.Printf("  %-8s %6.2f%%\n", a.Symbol, a.Weight*100)
	}
	fmt.Println()
	fmt.Printf("Expected return:  %6.2f%%\n", result.ExpectedReturn*100)
	fmt.Printf("Volatility:       %6.2f%%\n", result.Volatility*100)
	fmt.Printf("Sharpe ratio:     %6.3f\n", result.SharpeRatio)
	fmt.Printf("Best energy:      %.6f over %d reads\n", result.Energy, result.NumReads)

	for _, pair := range result.HighCorrelations {
		fmt.Printf("Note: %s and %s are highly correlated (%.2f)\n", pair.SymbolA, pair.SymbolB, pair.Correlation)
	}
}

func splitSymbols(value string) []string {
	var symbols []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}
